package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/phishscan/internal/domain/ai"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
	"github.com/bryanwahyu/phishscan/internal/metrics"
)

// FallbackPolicy decides what happens when the model answer is not a verdict.
type FallbackPolicy string

const (
	// FallbackModel keeps the prediction service verdict.
	FallbackModel FallbackPolicy = "model"
	// FallbackError fails the verification as an upstream error.
	FallbackError FallbackPolicy = "error"
)

// Outcome describes how the returned verdict was obtained.
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeFallback Outcome = "fallback"
)

type Service struct {
	client   ai.Client
	fallback FallbackPolicy
	log      *slog.Logger
}

func NewService(client ai.Client, fallback FallbackPolicy, log *slog.Logger) *Service {
	if fallback == "" {
		fallback = FallbackModel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{client: client, fallback: fallback, log: log}
}

// Verify returns the verifier's verdict for url, normalized onto the
// closed verdict set.
func (s *Service) Verify(ctx context.Context, url string, predicted scans.Verdict) (scans.Verdict, Outcome, error) {
	raw, err := s.client.Verify(ctx, url, predicted)
	if err != nil {
		return "", "", fmt.Errorf("verify %q: %w: %w", url, scans.ErrUpstream, err)
	}

	v, ok := scans.ParseVerdict(raw)
	if ok {
		return v, OutcomeVerified, nil
	}

	if s.fallback == FallbackError {
		return "", "", fmt.Errorf("verify %q: %w: unrecognized verdict %q", url, scans.ErrUpstream, raw)
	}
	metrics.IncVerifyFallback()
	s.log.Warn("verifier answer is not a verdict, keeping model verdict",
		"url", url, "answer", raw, "model_verdict", predicted)
	return predicted, OutcomeFallback, nil
}
