package scans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bryanwahyu/phishscan/internal/application"
	domain "github.com/bryanwahyu/phishscan/internal/domain/scans"
	"github.com/bryanwahyu/phishscan/internal/metrics"
)

// HistoryLimit is the fixed page size of the history query.
const HistoryLimit = 10

const defaultScanTimeout = 45 * time.Second

// Service implements use-cases untuk Scan.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Repo      domain.Repository
	Predictor domain.Predictor
	Clock     application.Clock
	Log       *slog.Logger
	// ScanTimeout bounds one shared lookup+predict+insert.
	ScanTimeout time.Duration

	inflight singleflight.Group
}

// ScanResult is the wire shape of POST /api/scan.
type ScanResult struct {
	Result    domain.Verdict `json:"result"`
	FromCache bool           `json:"fromCache"`
}

// Scan returns the verdict for url, from the store when it has already been
// scanned, otherwise from the prediction service. The cache key is the url
// exactly as given.
func (s *Service) Scan(ctx context.Context, url string) (ScanResult, error) {
	if strings.TrimSpace(url) == "" {
		return ScanResult{}, fmt.Errorf("%w: URL is required", domain.ErrInvalidInput)
	}

	// Concurrent scans of the same url share one lookup+predict+insert.
	// The shared work must not die with whichever caller started it, so it
	// runs detached and each caller only stops waiting on its own ctx.
	ch := s.inflight.DoChan(url, func() (any, error) {
		work, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.scanTimeout())
		defer cancel()
		return s.scan(work, url)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return ScanResult{}, res.Err
		}
		return res.Val.(ScanResult), nil
	case <-ctx.Done():
		return ScanResult{}, fmt.Errorf("scan %q: %w", url, ctx.Err())
	}
}

func (s *Service) scanTimeout() time.Duration {
	if s.ScanTimeout <= 0 {
		return defaultScanTimeout
	}
	return s.ScanTimeout
}

func (s *Service) scan(ctx context.Context, url string) (ScanResult, error) {
	existing, err := s.Repo.FindByURL(ctx, url)
	switch {
	case err == nil:
		metrics.IncScans("cache")
		s.logger().Debug("scan cache hit", "url", url, "prediction", existing.Prediction)
		return ScanResult{Result: existing.Prediction, FromCache: true}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return ScanResult{}, fmt.Errorf("lookup %q: %w", url, domain.Wrap(domain.ErrPersistence, err))
	}

	pred, err := s.Predictor.Predict(ctx, url)
	if err != nil {
		return ScanResult{}, fmt.Errorf("predict %q: %w", url, domain.Wrap(domain.ErrUpstream, err))
	}

	rec := &domain.ScanRecord{
		URL:        url,
		Features:   pred.Features,
		Prediction: pred.Verdict,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Insert(ctx, rec); err != nil {
		if !errors.Is(err, domain.ErrDuplicateURL) {
			return ScanResult{}, fmt.Errorf("insert %q: %w", url, domain.Wrap(domain.ErrPersistence, err))
		}
		// another instance stored it first; the unique key kept one record
		s.logger().Info("scan insert lost race, keeping stored record", "url", url)
	}

	metrics.IncScans("model")
	return ScanResult{Result: pred.Verdict, FromCache: false}, nil
}

// History ambil scan terakhir, newest first.
func (s *Service) History(ctx context.Context) ([]*domain.ScanRecord, error) {
	list, err := s.Repo.Latest(ctx, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", domain.Wrap(domain.ErrPersistence, err))
	}
	if list == nil {
		list = []*domain.ScanRecord{}
	}
	return list, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
