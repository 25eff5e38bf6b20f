package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/phishscan/internal/application"
	appai "github.com/bryanwahyu/phishscan/internal/application/ai"
	"github.com/bryanwahyu/phishscan/internal/domain/dataset"
	domain "github.com/bryanwahyu/phishscan/internal/domain/feedback"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
	"github.com/bryanwahyu/phishscan/internal/metrics"
)

const (
	// ListLimit caps GET /api/feedback.
	ListLimit = 10

	defaultCorrectionTimeout = 15 * time.Second
)

// Verifier is the second-opinion step, normally *appai.Service.
type Verifier interface {
	Verify(ctx context.Context, url string, predicted scans.Verdict) (scans.Verdict, appai.Outcome, error)
}

// Service records user feedback and reconciles the stored scan verdict.
type Service struct {
	Feedback  domain.Repository
	Scans     scans.Repository
	Predictor scans.Predictor
	Verifier  Verifier
	// Corrector receives corrected labels; nil disables dispatch.
	Corrector         dataset.Corrector
	CorrectionTimeout time.Duration
	Clock             application.Clock
	Log               *slog.Logger

	pending sync.WaitGroup
}

// SubmitCommand is the body of POST /api/feedback.
type SubmitCommand struct {
	URL          string
	UserFeedback string
	Type         string
}

// SubmitResult carries the prediction service verdict, before verification.
type SubmitResult struct {
	Prediction scans.Verdict `json:"prediction"`
}

// Submit stores the feedback event, re-runs inference and verification, and
// reconciles the scan record with the verified verdict. The feedback event
// stays stored whatever fails afterwards.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (SubmitResult, error) {
	if strings.TrimSpace(cmd.URL) == "" {
		return SubmitResult{}, fmt.Errorf("%w: URL is required", scans.ErrInvalidInput)
	}
	asserted, ok := scans.ParseVerdict(cmd.Type)
	if !ok {
		return SubmitResult{}, fmt.Errorf("%w: type must be %q or %q", scans.ErrInvalidInput, scans.VerdictPhishing, scans.VerdictSafe)
	}

	ev := &domain.Event{
		ID:           domain.EventID(uuid.NewString()),
		URL:          cmd.URL,
		UserFeedback: strings.TrimSpace(cmd.UserFeedback),
		Type:         asserted,
		CreatedAt:    s.now(),
	}
	if err := s.Feedback.Save(ctx, ev); err != nil {
		return SubmitResult{}, fmt.Errorf("save feedback: %w", scans.Wrap(scans.ErrPersistence, err))
	}
	metrics.IncFeedback()

	// inference runs again even if the url is already stored
	pred, err := s.Predictor.Predict(ctx, cmd.URL)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("predict %q: %w", cmd.URL, scans.Wrap(scans.ErrUpstream, err))
	}

	verified, outcome, err := s.Verifier.Verify(ctx, cmd.URL, pred.Verdict)
	if err != nil {
		return SubmitResult{}, err
	}

	created, err := s.reconcile(ctx, cmd.URL, pred.Features, verified)
	if err != nil {
		return SubmitResult{}, err
	}
	s.logger().Info("feedback reconciled",
		"url", cmd.URL,
		"feedback_id", ev.ID,
		"user_type", asserted,
		"model_verdict", pred.Verdict,
		"verified_verdict", verified,
		"verify_outcome", outcome,
		"created", created,
	)

	if verified != pred.Verdict {
		s.dispatchCorrection(ctx, dataset.Correction{
			URL:              cmd.URL,
			CorrectedVerdict: verified,
			ModelVerdict:     pred.Verdict,
			Features:         pred.Features,
			FeatureNames:     pred.FeatureNames,
			CreatedAt:        s.now(),
		})
	}

	// TODO: decide with product whether to answer with the verified verdict
	// instead; today the stored record and the response can disagree.
	return SubmitResult{Prediction: pred.Verdict}, nil
}

// reconcile updates the stored record in place, or inserts it when absent.
func (s *Service) reconcile(ctx context.Context, url string, features []float64, verdict scans.Verdict) (bool, error) {
	_, err := s.Scans.FindByURL(ctx, url)
	switch {
	case err == nil:
		return false, s.update(ctx, url, features, verdict)
	case !errors.Is(err, scans.ErrNotFound):
		return false, fmt.Errorf("lookup %q: %w", url, scans.Wrap(scans.ErrPersistence, err))
	}

	err = s.Scans.Insert(ctx, &scans.ScanRecord{
		URL:        url,
		Features:   features,
		Prediction: verdict,
		CreatedAt:  s.now(),
	})
	switch {
	case err == nil:
		metrics.IncReconcile("created")
		return true, nil
	case errors.Is(err, scans.ErrDuplicateURL):
		// inserted concurrently; fall through to the update path
		return false, s.update(ctx, url, features, verdict)
	default:
		return false, fmt.Errorf("insert %q: %w", url, scans.Wrap(scans.ErrPersistence, err))
	}
}

func (s *Service) update(ctx context.Context, url string, features []float64, verdict scans.Verdict) error {
	if err := s.Scans.Update(ctx, url, features, verdict); err != nil {
		return fmt.Errorf("update %q: %w", url, scans.Wrap(scans.ErrPersistence, err))
	}
	metrics.IncReconcile("updated")
	return nil
}

// dispatchCorrection sends c in the background. The caller's cancellation
// does not reach it; failures are only logged.
func (s *Service) dispatchCorrection(ctx context.Context, c dataset.Correction) {
	if s.Corrector == nil {
		return
	}
	timeout := s.CorrectionTimeout
	if timeout <= 0 {
		timeout = defaultCorrectionTimeout
	}
	bg := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(bg, timeout)
		defer cancel()

		if err := s.Corrector.Submit(ctx, c); err != nil {
			metrics.IncCorrections("failed")
			s.logger().Error("dataset correction failed", "url", c.URL, "corrected", c.CorrectedVerdict, "err", err)
			return
		}
		metrics.IncCorrections("sent")
		s.logger().Info("dataset correction sent", "url", c.URL, "corrected", c.CorrectedVerdict)
	}()
}

// Wait blocks until every dispatched correction has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Latest returns the most recent feedback events, newest first.
func (s *Service) Latest(ctx context.Context) ([]*domain.Event, error) {
	list, err := s.Feedback.Latest(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", scans.Wrap(scans.ErrPersistence, err))
	}
	if list == nil {
		list = []*domain.Event{}
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
