package dataset

import (
	"context"
	"time"

	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

// Correction is sent when the verifier disagrees with the model.
type Correction struct {
	URL              string        `json:"url"`
	CorrectedVerdict scans.Verdict `json:"correctedVerdict"`
	ModelVerdict     scans.Verdict `json:"modelVerdict"`
	Features         []float64     `json:"features,omitempty"`
	FeatureNames     []string      `json:"featureNames,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Corrector port: somewhere corrected labels are sent for retraining.
type Corrector interface {
	Submit(ctx context.Context, c Correction) error
}
