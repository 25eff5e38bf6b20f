package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/phishscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) FindByURL(ctx context.Context, url string) (*domain.ScanRecord, error) {
	const q = `SELECT url, features, prediction, created_at FROM scan_records WHERE url = ? LIMIT 1`

	s, err := scanRecord(r.db.QueryRowContext(ctx, q, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return s, nil
}

func (r *ScanRepository) Insert(ctx context.Context, s *domain.ScanRecord) error {
	const q = `INSERT INTO scan_records (url, features, prediction, created_at) VALUES (?, ?, ?, ?)`

	features, err := encodeFeatures(s.Features)
	if err != nil {
		return fmt.Errorf("%w: encode features: %w", domain.ErrPersistence, err)
	}
	_, err = r.db.ExecContext(ctx, q, s.URL, features, string(s.Prediction), toNanos(s.CreatedAt))
	if isDuplicate(err) {
		return domain.ErrDuplicateURL
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *ScanRepository) Update(ctx context.Context, url string, features []float64, prediction domain.Verdict) error {
	const q = `UPDATE scan_records SET features = ?, prediction = ? WHERE url = ?`

	enc, err := encodeFeatures(features)
	if err != nil {
		return fmt.Errorf("%w: encode features: %w", domain.ErrPersistence, err)
	}
	res, err := r.db.ExecContext(ctx, q, enc, string(prediction), url)
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

func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
	SELECT url, features, prediction, created_at
	FROM scan_records
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

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
	var created int64
	if err := row.Scan(&s.URL, &features, &s.Prediction, &created); err != nil {
		return nil, err
	}
	f, err := decodeFeatures(features)
	if err != nil {
		return nil, fmt.Errorf("decode features for %q: %w", s.URL, err)
	}
	s.Features = f
	s.CreatedAt = fromNanos(created)
	return &s, nil
}
