package alert

import (
	"context"

	"github.com/linnemanlabs/wildwatch/internal/species"
)

// Notification is one dispatch event, emitted once per alertable detection
// after its fan-out completes.
type Notification struct {
	Detection       Detection
	Severity        species.Severity
	Title           string
	Body            string
	Recommendations []string
	AlertsCreated   int
}

// Notifier is the external dispatch collaborator. Implementations must
// return an explicit error on failure so the ingestion boundary can log
// and count it; silently reporting success is not an option.
type Notifier interface {
	Send(ctx context.Context, n *Notification) error
}
