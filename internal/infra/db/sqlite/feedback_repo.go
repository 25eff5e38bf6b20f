package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/phishscan/internal/domain/feedback"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Save(ctx context.Context, e *domain.Event) error {
	const q = `
	INSERT INTO feedback_events (id, url, user_feedback, type, verified, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	var comment sql.NullString
	if strings.TrimSpace(e.UserFeedback) != "" {
		comment = sql.NullString{String: e.UserFeedback, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q, string(e.ID), e.URL, comment, string(e.Type), e.Verified, toNanos(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("%w: %w", scans.ErrPersistence, err)
	}
	return nil
}

func (r *FeedbackRepository) Latest(ctx context.Context, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
	SELECT id, url, user_feedback, type, verified, created_at
	FROM feedback_events
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scans.ErrPersistence, err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		var comment sql.NullString
		var created int64
		if err := rows.Scan(&e.ID, &e.URL, &comment, &e.Type, &e.Verified, &created); err != nil {
			return nil, fmt.Errorf("%w: %w", scans.ErrPersistence, err)
		}
		e.UserFeedback = comment.String
		e.CreatedAt = fromNanos(created)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", scans.ErrPersistence, err)
	}
	return out, nil
}
