package alert

import (
	"context"
	"time"
)

// Store is the persistence interface for detections and alerts.
//
// The store owns the consistency contract the engine relies on: at most one
// alert exists per (subscriber, detection) pair, a batch insert is atomic
// (no partial alert set becomes visible on failure), and writes for one
// detection are serialized by the store, not by the engine.
type Store interface {
	// CreateDetection persists a new immutable detection.
	CreateDetection(ctx context.Context, d *Detection) error

	// GetDetection retrieves a detection by ID.
	GetDetection(ctx context.Context, id string) (*Detection, bool, error)

	// InsertAlerts atomically inserts a fan-out batch and returns the
	// count actually inserted. Rows conflicting on (user, detection) are
	// skipped, which makes re-running fan-out idempotent.
	InsertAlerts(ctx context.Context, alerts []Alert) (int, error)

	// ListForUser returns a subscriber's alerts joined with their
	// detections, most recent first, up to limit.
	ListForUser(ctx context.Context, userID string, limit int) ([]Record, error)

	// SpeciesCounts returns per-species alert counts for a subscriber.
	SpeciesCounts(ctx context.Context, userID string) (map[string]int, error)

	// DetectionsWithoutAlerts returns detections created before cutoff
	// that have no alerts, the input to the reconciliation sweep.
	DetectionsWithoutAlerts(ctx context.Context, cutoff time.Time) ([]Detection, error)
}
