package ai

import (
	"context"

	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

// Client asks a generative model to confirm or override the model verdict.
// The returned text is not guaranteed to be a valid verdict.
type Client interface {
	Verify(ctx context.Context, url string, predicted scans.Verdict) (string, error)
}
