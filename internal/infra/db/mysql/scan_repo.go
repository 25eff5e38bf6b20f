package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/phishscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// FindByURL exact match on url
func (r *ScanRepository) FindByURL(ctx context.Context, url string) (*domain.ScanRecord, error) {
	const q = `
SELECT url, features, prediction, created_at
FROM scan_records
WHERE url_hash=? AND url=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, urlHash(url), url)
	s, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return s, nil
}

// Insert a new record; the unique key on url_hash rejects a second one.
func (r *ScanRepository) Insert(ctx context.Context, s *domain.ScanRecord) error {
	const q = `
INSERT INTO scan_records (url_hash, url, features, prediction, created_at)
VALUES (?,?,?,?,?);
`
	features, err := encodeFeatures(s.Features)
	if err != nil {
		return fmt.Errorf("%w: encode features: %w", domain.ErrPersistence, err)
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, q, urlHash(s.URL), s.URL, features, stringOrDash(string(s.Prediction)), created)
	if isDuplicate(err) {
		return domain.ErrDuplicateURL
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Update features and prediction in place; created_at is kept.
// Needs clientFoundRows=true in the DSN so unchanged rows still count.
func (r *ScanRepository) Update(ctx context.Context, url string, features []float64, prediction domain.Verdict) error {
	const q = `
UPDATE scan_records SET features=?, prediction=?
WHERE url_hash=? AND url=?;
`
	enc, err := encodeFeatures(features)
	if err != nil {
		return fmt.Errorf("%w: encode features: %w", domain.ErrPersistence, err)
	}
	res, err := r.db.ExecContext(ctx, q, enc, stringOrDash(string(prediction)), urlHash(url), url)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Latest scan records, newest first
func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT url, features, prediction, created_at
FROM scan_records
ORDER BY created_at DESC, id DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []*domain.ScanRecord
	for rows.Next() {
		s, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.ScanRecord, error) {
	var s domain.ScanRecord
	var features string
	if err := row.Scan(&s.URL, &features, &s.Prediction, &s.CreatedAt); err != nil {
		return nil, err
	}
	f, err := decodeFeatures(features)
	if err != nil {
		return nil, fmt.Errorf("decode features for %q: %w", s.URL, err)
	}
	s.Features = f
	return &s, nil
}
