package alert

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/wildwatch/internal/geo"
	"github.com/linnemanlabs/wildwatch/internal/profile"
)

// FanOut computes the alert set for one detection against the full
// subscriber profile set.
//
// A profile takes part only when both coordinates and a radius are set;
// a missing radius is a silent non-match, never zero. A profile matches
// when its distance to the detection is defined and at most its radius, so
// a radius of exactly 0 matches only the colocated case. Result order
// follows profile iteration order; no re-sorting, no dedup across repeated
// invocations (that is the store's contract).
//
// Deterministic modulo generated alert IDs; the creation timestamp is the
// supplied fan-out time, not the detection time. O(len(profiles)).
func FanOut(det *Detection, profiles []profile.Profile, now time.Time) []Alert {
	var alerts []Alert

	for i := range profiles {
		p := &profiles[i]
		if !p.Locatable() {
			continue
		}

		dist, ok := geo.Between(p.Lat, p.Lon, &det.Lat, &det.Lon)
		if !ok || dist > *p.RadiusKm {
			continue
		}

		alerts = append(alerts, Alert{
			ID:          ulid.Make().String(),
			UserID:      p.UserID,
			DetectionID: det.ID,
			DistanceKm:  geo.Round2(dist),
			CreatedAt:   now,
		})
	}

	return alerts
}
