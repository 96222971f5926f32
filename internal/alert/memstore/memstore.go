// Package memstore provides an in-memory implementation of alert.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/wildwatch/internal/alert"
)

// Store holds detections and alerts in memory. Suitable for dev/testing.
type Store struct {
	mu         sync.RWMutex
	detections map[string]*alert.Detection
	alerts     []alert.Alert
	pairs      map[[2]string]struct{} // (user ID, detection ID) dedup
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		detections: make(map[string]*alert.Detection),
		pairs:      make(map[[2]string]struct{}),
	}
}

// CreateDetection stores a copy of the detection.
func (s *Store) CreateDetection(_ context.Context, d *alert.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.detections[d.ID] = &cp
	return nil
}

// GetDetection retrieves a detection by ID. Returns a copy.
func (s *Store) GetDetection(_ context.Context, id string) (*alert.Detection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.detections[id]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	return &cp, true, nil
}

// InsertAlerts inserts the batch under one lock, skipping rows that would
// duplicate a (user, detection) pair, and returns the count inserted.
func (s *Store) InsertAlerts(_ context.Context, alerts []alert.Alert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, a := range alerts {
		key := [2]string{a.UserID, a.DetectionID}
		if _, dup := s.pairs[key]; dup {
			continue
		}
		s.pairs[key] = struct{}{}
		s.alerts = append(s.alerts, a)
		inserted++
	}
	return inserted, nil
}

// ListForUser returns the subscriber's alerts joined with detections, most
// recent first, up to limit.
func (s *Store) ListForUser(_ context.Context, userID string, limit int) ([]alert.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []alert.Record
	for _, a := range s.alerts {
		if a.UserID != userID {
			continue
		}
		d, ok := s.detections[a.DetectionID]
		if !ok {
			continue
		}
		out = append(out, alert.Record{
			ID:         a.ID,
			DistanceKm: a.DistanceKm,
			CreatedAt:  a.CreatedAt,
			Species:    d.Species,
			Lat:        d.Lat,
			Lon:        d.Lon,
			DetectedAt: d.DetectedAt,
			Confidence: d.Confidence,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SpeciesCounts returns per-species alert counts for a subscriber.
func (s *Store) SpeciesCounts(_ context.Context, userID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range s.alerts {
		if a.UserID != userID {
			continue
		}
		if d, ok := s.detections[a.DetectionID]; ok {
			counts[d.Species]++
		}
	}
	return counts, nil
}

// DetectionsWithoutAlerts returns detections created before cutoff that
// have no alerts, ordered by detection time.
func (s *Store) DetectionsWithoutAlerts(_ context.Context, cutoff time.Time) ([]alert.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerted := make(map[string]struct{}, len(s.alerts))
	for _, a := range s.alerts {
		alerted[a.DetectionID] = struct{}{}
	}

	var out []alert.Detection
	for _, d := range s.detections {
		if d.DetectedAt.After(cutoff) {
			continue
		}
		if _, ok := alerted[d.ID]; ok {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}
