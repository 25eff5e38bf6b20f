package scans

import "context"

// Repository port (interface untuk persistence)
//
// FindByURL returns ErrNotFound when no record exists. Insert returns
// ErrDuplicateURL when the url is already stored.
type Repository interface {
	FindByURL(ctx context.Context, url string) (*ScanRecord, error)
	Insert(ctx context.Context, r *ScanRecord) error
	Update(ctx context.Context, url string, features []float64, prediction Verdict) error
	Latest(ctx context.Context, limit int) ([]*ScanRecord, error)
}

// Predictor port (interface ke inference service)
type Predictor interface {
	Predict(ctx context.Context, url string) (Prediction, error)
}
