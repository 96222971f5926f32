package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/wildwatch/internal/detect"
	"github.com/linnemanlabs/wildwatch/internal/geo"
	"github.com/linnemanlabs/wildwatch/internal/profile"
	"github.com/linnemanlabs/wildwatch/internal/species"
)

// ListLimit caps how many alerts a subscriber listing returns.
const ListLimit = 100

// IngestRequest is a normalized detection event entering the system.
// Confidence may be a fraction in [0,1] or a percentage in (1,100];
// fractions are converted to percent here and nowhere else.
type IngestRequest struct {
	Species    string
	Lat        float64
	Lon        float64
	Confidence float64
	FilePath   string
	UserID     string
}

// IngestResult reports what one ingestion produced.
type IngestResult struct {
	DetectionID   string `json:"detection_id"`
	AlertsCreated int    `json:"alerts_created"`
}

// AnalyzeRequest asks the external detector to examine an already-uploaded
// file and ingests every alertable candidate it reports, attributed to the
// submitting user's coordinates.
type AnalyzeRequest struct {
	FileRef string
	Lat     float64
	Lon     float64
	UserID  string
}

// WildAnimal is one alertable candidate surfaced by Analyze.
type WildAnimal struct {
	Species     string  `json:"species"`
	Confidence  float64 `json:"confidence"` // percent, 0-100
	DetectionID string  `json:"detection_id"`
}

// AnalyzeResult reports everything the detector saw plus what was ingested.
type AnalyzeResult struct {
	Candidates    []detect.Candidate `json:"detections"`
	WildAnimals   []WildAnimal       `json:"wild_animals"`
	AlertsCreated int                `json:"alerts_created"`
}

// Service is the ingestion boundary: it validates input, persists
// detections, runs fan-out, and dispatches notifications. One
// detection-storage write followed by one fan-out-and-alert-storage step
// per event; a crash between the two leaves a detection with zero alerts,
// which the reconciliation sweep recovers.
type Service struct {
	store      Store
	profiles   profile.Store
	classifier *species.Classifier
	detector   detect.Detector
	notifier   Notifier
	logger     log.Logger
	metrics    *Metrics
}

// NewService creates the ingestion service. detector and notifier are
// optional collaborators; metrics may be nil in tests.
func NewService(store Store, profiles profile.Store, classifier *species.Classifier, detector detect.Detector, notifier Notifier, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		profiles:   profiles,
		classifier: classifier,
		detector:   detector,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// Ingest validates and persists one detection event, fans it out, and
// reports the detection ID plus the count of alerts actually inserted.
// Validation failures persist nothing.
func (s *Service) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if err := validateIngest(req); err != nil {
		s.countIngest("invalid")
		return nil, err
	}

	det := &Detection{
		ID:         ulid.Make().String(),
		Species:    strings.ToLower(strings.TrimSpace(req.Species)),
		Lat:        req.Lat,
		Lon:        req.Lon,
		Confidence: toPercent(req.Confidence),
		FilePath:   req.FilePath,
		DetectedAt: time.Now().UTC(),
		UserID:     req.UserID,
	}

	if err := s.store.CreateDetection(ctx, det); err != nil {
		s.countIngest("error")
		return nil, fmt.Errorf("create detection: %w", err)
	}

	created, err := s.fanOut(ctx, det)
	if err != nil {
		s.countIngest("error")
		return nil, err
	}

	if s.classifier.Alertable(det.Species, det.Confidence/100) {
		s.dispatch(ctx, det, created)
	}

	s.countIngest("ok")
	if s.metrics != nil {
		s.metrics.DetectionsTotal.WithLabelValues(det.Species).Inc()
	}

	s.logger.Info(ctx, "detection ingested",
		"detection_id", det.ID,
		"species", det.Species,
		"confidence_pct", det.Confidence,
		"alerts_created", created,
	)

	return &IngestResult{DetectionID: det.ID, AlertsCreated: created}, nil
}

// Analyze runs the external detector over a file reference and ingests
// each alertable candidate at the submitter's coordinates. A detector
// failure (including timeout) is an ingestion failure: nothing persisted.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error) {
	if s.detector == nil {
		return nil, invalidf("detector", "no detector configured")
	}
	if req.FileRef == "" {
		return nil, invalidf("file_ref", "required")
	}
	if err := validateCoords(req.Lat, req.Lon); err != nil {
		return nil, err
	}

	start := time.Now()
	candidates, err := s.detector.Detect(ctx, req.FileRef)
	if s.metrics != nil {
		s.metrics.DetectorDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.countDetector("error")
		return nil, fmt.Errorf("detector: %w", err)
	}
	s.countDetector("ok")

	result := &AnalyzeResult{Candidates: candidates}

	for _, c := range candidates {
		if !s.classifier.Alertable(c.Label, c.Confidence) {
			continue
		}

		det := &Detection{
			ID:         ulid.Make().String(),
			Species:    strings.ToLower(c.Label),
			Lat:        req.Lat,
			Lon:        req.Lon,
			Confidence: c.Confidence * 100, // the one [0,1] -> percent conversion
			FilePath:   req.FileRef,
			DetectedAt: time.Now().UTC(),
			UserID:     req.UserID,
		}

		if err := s.store.CreateDetection(ctx, det); err != nil {
			return nil, fmt.Errorf("create detection: %w", err)
		}
		if s.metrics != nil {
			s.metrics.DetectionsTotal.WithLabelValues(det.Species).Inc()
		}

		created, err := s.fanOut(ctx, det)
		if err != nil {
			return nil, err
		}
		result.AlertsCreated += created

		s.dispatch(ctx, det, created)

		result.WildAnimals = append(result.WildAnimals, WildAnimal{
			Species:     det.Species,
			Confidence:  geo.Round2(det.Confidence),
			DetectionID: det.ID,
		})
	}

	return result, nil
}

// ListAlerts returns a subscriber's alerts, most recent first, up to
// ListLimit. ErrNotFound when the subscriber does not exist.
func (s *Service) ListAlerts(ctx context.Context, userID string) ([]Record, error) {
	if _, ok, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.ListForUser(ctx, userID, ListLimit)
}

// Stats returns per-species alert counts for a subscriber.
func (s *Service) Stats(ctx context.Context, userID string) (map[string]int, error) {
	if _, ok, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.SpeciesCounts(ctx, userID)
}

// SweepOnce re-runs fan-out for detections older than grace that have no
// alerts, and reports how many produced at least one alert this pass.
// Safe to re-run: the store skips conflicting (user, detection) rows.
// Detections that match no subscriber stay in the scan set and are
// re-examined on every sweep; they are never counted as recovered.
func (s *Service) SweepOnce(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-grace)

	stale, err := s.store.DetectionsWithoutAlerts(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find unalerted detections: %w", err)
	}

	recovered := 0
	for i := range stale {
		det := &stale[i]
		created, err := s.fanOut(ctx, det)
		if err != nil {
			return recovered, fmt.Errorf("sweep fan-out %s: %w", det.ID, err)
		}
		if created == 0 {
			continue
		}
		recovered++
		if s.metrics != nil {
			s.metrics.SweepRecovered.Inc()
		}
		s.logger.Info(ctx, "sweep re-ran fan-out",
			"detection_id", det.ID,
			"species", det.Species,
			"alerts_created", created,
		)
	}
	return recovered, nil
}

// fanOut scans every profile, computes the alert batch, and inserts it
// atomically. Returns the count actually inserted.
func (s *Service) fanOut(ctx context.Context, det *Detection) (int, error) {
	start := time.Now()

	profiles, err := s.profiles.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load profiles: %w", err)
	}

	alerts := FanOut(det, profiles, time.Now().UTC())

	created := 0
	if len(alerts) > 0 {
		created, err = s.store.InsertAlerts(ctx, alerts)
		if err != nil {
			return 0, fmt.Errorf("insert alerts: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.FanOutDuration.Observe(time.Since(start).Seconds())
		s.metrics.FanOutProfiles.Observe(float64(len(profiles)))
		s.metrics.FanOutMatches.Observe(float64(len(alerts)))
		s.metrics.AlertsCreated.Add(float64(created))
	}

	return created, nil
}

// dispatch hands one alertable detection to the notification collaborator.
// Dispatch failure is logged and counted, never escalated: the alerts are
// already persisted and visible.
func (s *Service) dispatch(ctx context.Context, det *Detection, created int) {
	frac := det.Confidence / 100
	msg := s.classifier.MessageFor(det.Species, frac)

	n := &Notification{
		Detection:       *det,
		Severity:        msg.Severity,
		Title:           msg.Title,
		Body:            msg.Body,
		Recommendations: s.classifier.Recommendations(det.Species),
		AlertsCreated:   created,
	}

	if s.notifier == nil {
		// Transport is an external collaborator; without one the event is
		// only logged.
		s.logger.Info(ctx, "wildlife alert",
			"severity", string(n.Severity),
			"species", det.Species,
			"confidence_pct", det.Confidence,
			"alerts_created", created,
		)
		s.countDispatch("skipped")
		return
	}

	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error(ctx, err, "alert dispatch failed",
			"detection_id", det.ID,
			"species", det.Species,
		)
		s.countDispatch("error")
		return
	}
	s.countDispatch("ok")
}

func (s *Service) countIngest(result string) {
	if s.metrics != nil {
		s.metrics.IngestsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countDispatch(result string) {
	if s.metrics != nil {
		s.metrics.DispatchesTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countDetector(result string) {
	if s.metrics != nil {
		s.metrics.DetectorCalls.WithLabelValues(result).Inc()
	}
}

func validateIngest(req *IngestRequest) error {
	if strings.TrimSpace(req.Species) == "" {
		return invalidf("species", "required")
	}
	if err := validateCoords(req.Lat, req.Lon); err != nil {
		return err
	}
	if req.Confidence < 0 || req.Confidence > 100 {
		return invalidf("confidence", "%v outside [0,1] or (1,100]", req.Confidence)
	}
	return nil
}

func validateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return invalidf("lat", "%v outside [-90,90]", lat)
	}
	if lon < -180 || lon > 180 {
		return invalidf("lon", "%v outside [-180,180]", lon)
	}
	return nil
}

// toPercent normalizes a confidence that may arrive as a fraction or a
// percentage. Values at or below 1 are fractions.
func toPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}
