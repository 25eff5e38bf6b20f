package feedback

import (
	"time"

	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

// EventID identifier type
type EventID string

// Event is a write-once record of what a user reported about a URL.
// Verified is stored for the dataset pipeline and never set by this service.
type Event struct {
	ID           EventID       `json:"id"`
	URL          string        `json:"url"`
	UserFeedback string        `json:"userFeedback,omitempty"`
	Type         scans.Verdict `json:"type"`
	Verified     bool          `json:"verified"`
	CreatedAt    time.Time     `json:"createdAt"`
}
