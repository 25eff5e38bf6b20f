package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/phishscan/internal/domain/feedback"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Save appends a feedback event
func (r *FeedbackRepository) Save(ctx context.Context, e *domain.Event) error {
	const q = `
INSERT INTO feedback_events
  (id, url, user_feedback, type, verified, created_at)
VALUES (?,?,?,?,?,?);
`
	var comment sql.NullString
	if strings.TrimSpace(e.UserFeedback) != "" {
		comment = sql.NullString{String: e.UserFeedback, Valid: true}
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, q, e.ID, e.URL, comment, stringOrDash(string(e.Type)), e.Verified, createdAt)
	if err != nil {
		return fmt.Errorf("%w: %w", scans.ErrPersistence, err)
	}
	return nil
}

// Latest returns feedback events ordered by created_at desc
func (r *FeedbackRepository) Latest(ctx context.Context, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT id, url, user_feedback, type, verified, created_at
FROM feedback_events
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scans.ErrPersistence, err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		var comment sql.NullString
		if err := rows.Scan(&e.ID, &e.URL, &comment, &e.Type, &e.Verified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", scans.ErrPersistence, err)
		}
		e.UserFeedback = comment.String
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", scans.ErrPersistence, err)
	}
	return out, nil
}
