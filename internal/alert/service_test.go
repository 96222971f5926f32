package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/wildwatch/internal/detect"
	"github.com/linnemanlabs/wildwatch/internal/profile"
	"github.com/linnemanlabs/wildwatch/internal/species"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu         sync.Mutex
	detections map[string]*Detection
	alerts     []Alert
	pairs      map[[2]string]struct{}
	createErr  error
	insertErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		detections: make(map[string]*Detection),
		pairs:      make(map[[2]string]struct{}),
	}
}

func (m *mockStore) CreateDetection(_ context.Context, d *Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *d
	m.detections[d.ID] = &cp
	return nil
}

func (m *mockStore) GetDetection(_ context.Context, id string) (*Detection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.detections[id]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	return &cp, true, nil
}

func (m *mockStore) InsertAlerts(_ context.Context, alerts []Alert) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	inserted := 0
	for _, a := range alerts {
		key := [2]string{a.UserID, a.DetectionID}
		if _, dup := m.pairs[key]; dup {
			continue
		}
		m.pairs[key] = struct{}{}
		m.alerts = append(m.alerts, a)
		inserted++
	}
	return inserted, nil
}

func (m *mockStore) ListForUser(_ context.Context, userID string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, a := range m.alerts {
		if a.UserID != userID {
			continue
		}
		d := m.detections[a.DetectionID]
		out = append(out, Record{
			ID: a.ID, DistanceKm: a.DistanceKm, CreatedAt: a.CreatedAt,
			Species: d.Species, Lat: d.Lat, Lon: d.Lon,
			DetectedAt: d.DetectedAt, Confidence: d.Confidence,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) SpeciesCounts(_ context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range m.alerts {
		if a.UserID != userID {
			continue
		}
		counts[m.detections[a.DetectionID].Species]++
	}
	return counts, nil
}

func (m *mockStore) DetectionsWithoutAlerts(_ context.Context, cutoff time.Time) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alerted := make(map[string]struct{})
	for _, a := range m.alerts {
		alerted[a.DetectionID] = struct{}{}
	}
	var out []Detection
	for _, d := range m.detections {
		if d.DetectedAt.After(cutoff) {
			continue
		}
		if _, ok := alerted[d.ID]; ok {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

// mockProfiles implements profile.Store for testing.
type mockProfiles struct {
	mu       sync.Mutex
	profiles []profile.Profile
	allErr   error
}

func (m *mockProfiles) Get(_ context.Context, userID string) (*profile.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.profiles {
		if m.profiles[i].UserID == userID {
			cp := m.profiles[i]
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockProfiles) Put(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, *p)
	return nil
}

func (m *mockProfiles) All(_ context.Context) ([]profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allErr != nil {
		return nil, m.allErr
	}
	out := make([]profile.Profile, len(m.profiles))
	copy(out, m.profiles)
	return out, nil
}

// mockNotifier records sent notifications.
type mockNotifier struct {
	mu      sync.Mutex
	sent    []*Notification
	sendErr error
}

func (m *mockNotifier) Send(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockDetector returns canned candidates.
type mockDetector struct {
	candidates []detect.Candidate
	err        error
}

func (m *mockDetector) Detect(_ context.Context, _ string) ([]detect.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

func testClassifier(t *testing.T) *species.Classifier {
	t.Helper()
	return species.New(species.DefaultConfig())
}

func nearbyProfile(userID string, lat, lon, radius float64) profile.Profile {
	return profile.Profile{UserID: userID, Lat: ptr(lat), Lon: ptr(lon), RadiusKm: ptr(radius)}
}

func TestIngest_Validation(t *testing.T) {
	t.Parallel()

	svc := NewService(newMockStore(), &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	cases := []struct {
		name string
		req  IngestRequest
	}{
		{"empty species", IngestRequest{Species: "  ", Lat: 10, Lon: 10, Confidence: 0.9}},
		{"lat too high", IngestRequest{Species: "tiger", Lat: 91, Lon: 10, Confidence: 0.9}},
		{"lat too low", IngestRequest{Species: "tiger", Lat: -91, Lon: 10, Confidence: 0.9}},
		{"lon too high", IngestRequest{Species: "tiger", Lat: 10, Lon: 181, Confidence: 0.9}},
		{"confidence negative", IngestRequest{Species: "tiger", Lat: 10, Lon: 10, Confidence: -0.1}},
		{"confidence above 100", IngestRequest{Species: "tiger", Lat: 10, Lon: 10, Confidence: 100.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Ingest(context.Background(), &tc.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestIngest_ValidationPersistsNothing(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	_, err := svc.Ingest(context.Background(), &IngestRequest{Species: "", Lat: 10, Lon: 10})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(store.detections) != 0 {
		t.Errorf("detections persisted on invalid input: %d", len(store.detections))
	}
}

func TestIngest_FractionConvertedToPercent(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	res, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "Leopard", Lat: 28.6, Lon: 77.2, Confidence: 0.92,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	d, ok, _ := store.GetDetection(context.Background(), res.DetectionID)
	if !ok {
		t.Fatal("detection not persisted")
	}
	if d.Confidence != 92 {
		t.Errorf("Confidence = %v, want 92", d.Confidence)
	}
	if d.Species != "leopard" {
		t.Errorf("Species = %q, want lowercased leopard", d.Species)
	}
}

func TestIngest_PercentPassedThrough(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	res, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "tiger", Lat: 10, Lon: 10, Confidence: 87.5,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	d, _, _ := store.GetDetection(context.Background(), res.DetectionID)
	if d.Confidence != 87.5 {
		t.Errorf("Confidence = %v, want 87.5 unchanged", d.Confidence)
	}
}

func TestIngest_FanOutAndDispatch(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	profiles := &mockProfiles{profiles: []profile.Profile{
		nearbyProfile("near", 28.6139, 77.2090, 5),
		nearbyProfile("far", 40, -70, 5),
	}}
	notifier := &mockNotifier{}
	svc := NewService(store, profiles, testClassifier(t), nil, notifier, log.Nop(), nil)

	res, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "leopard", Lat: 28.6139, Lon: 77.2090, Confidence: 0.92,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.AlertsCreated != 1 {
		t.Errorf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
	if notifier.count() != 1 {
		t.Fatalf("notifications sent = %d, want 1", notifier.count())
	}

	n := notifier.sent[0]
	if n.Severity != species.SeverityCritical {
		t.Errorf("Severity = %q, want critical", n.Severity)
	}
	if n.AlertsCreated != 1 {
		t.Errorf("notification AlertsCreated = %d, want 1", n.AlertsCreated)
	}
	if len(n.Recommendations) == 0 {
		t.Error("expected safety recommendations for leopard")
	}
}

func TestIngest_NonWildSkipsDispatch(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("near", 10, 10, 5)}}
	notifier := &mockNotifier{}
	svc := NewService(store, profiles, testClassifier(t), nil, notifier, log.Nop(), nil)

	res, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "deer", Lat: 10, Lon: 10, Confidence: 0.99,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	// Proximity alerts are still stored; only the outbound notification is
	// gated on the wild-species verdict.
	if res.AlertsCreated != 1 {
		t.Errorf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
	if notifier.count() != 0 {
		t.Errorf("notifications sent = %d, want 0 for non-wild species", notifier.count())
	}
}

func TestIngest_LowConfidenceSkipsDispatch(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("near", 10, 10, 5)}}
	svc := NewService(newMockStore(), profiles, testClassifier(t), nil, notifier, log.Nop(), nil)

	_, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "leopard", Lat: 10, Lon: 10, Confidence: 0.3,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if notifier.count() != 0 {
		t.Errorf("notifications sent = %d, want 0 below threshold", notifier.count())
	}
}

func TestIngest_NotifierFailureNonFatal(t *testing.T) {
	t.Parallel()

	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("near", 10, 10, 5)}}
	notifier := &mockNotifier{sendErr: errors.New("webhook down")}
	svc := NewService(newMockStore(), profiles, testClassifier(t), nil, notifier, log.Nop(), nil)

	res, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "tiger", Lat: 10, Lon: 10, Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("Ingest returned error on dispatch failure: %v", err)
	}
	if res.AlertsCreated != 1 {
		t.Errorf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
}

func TestIngest_StoreError(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.createErr = errors.New("db down")
	svc := NewService(store, &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	_, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "tiger", Lat: 10, Lon: 10, Confidence: 0.9,
	})
	if err == nil {
		t.Fatal("expected error from store")
	}
}

func TestIngest_RepeatDoesNotDuplicateAlerts(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("near", 10, 10, 5)}}
	svc := NewService(store, profiles, testClassifier(t), nil, nil, log.Nop(), nil)

	res, err := svc.Ingest(context.Background(), &IngestRequest{
		Species: "tiger", Lat: 10, Lon: 10, Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Re-running fan-out for the same detection inserts nothing new.
	d, _, _ := store.GetDetection(context.Background(), res.DetectionID)
	created, err := svc.fanOut(context.Background(), d)
	if err != nil {
		t.Fatalf("fanOut: %v", err)
	}
	if created != 0 {
		t.Errorf("repeat fan-out created %d alerts, want 0", created)
	}
}

func TestAnalyze_NoDetectorConfigured(t *testing.T) {
	t.Parallel()

	svc := NewService(newMockStore(), &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{FileRef: "cam-7/img.jpg", Lat: 10, Lon: 10})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestAnalyze_GatesCandidates(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("near", 10, 10, 5)}}
	detector := &mockDetector{candidates: []detect.Candidate{
		{Label: "Leopard", Confidence: 0.92},
		{Label: "deer", Confidence: 0.99},
		{Label: "leopard", Confidence: 0.3},
	}}
	notifier := &mockNotifier{}
	svc := NewService(store, profiles, testClassifier(t), detector, notifier, log.Nop(), nil)

	res, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		FileRef: "cam-7/img.jpg", Lat: 10, Lon: 10, UserID: "uploader",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Candidates) != 3 {
		t.Errorf("Candidates = %d, want all 3 echoed", len(res.Candidates))
	}
	if len(res.WildAnimals) != 1 {
		t.Fatalf("WildAnimals = %d, want 1 (only alertable candidates)", len(res.WildAnimals))
	}
	wa := res.WildAnimals[0]
	if wa.Species != "leopard" {
		t.Errorf("Species = %q, want leopard", wa.Species)
	}
	if wa.Confidence != 92 {
		t.Errorf("Confidence = %v, want 92 (percent)", wa.Confidence)
	}
	if res.AlertsCreated != 1 {
		t.Errorf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
	if len(store.detections) != 1 {
		t.Errorf("persisted detections = %d, want 1", len(store.detections))
	}
	if notifier.count() != 1 {
		t.Errorf("notifications sent = %d, want 1", notifier.count())
	}
}

func TestAnalyze_DetectorError(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	detector := &mockDetector{err: errors.New("detector timeout")}
	svc := NewService(store, &mockProfiles{}, testClassifier(t), detector, nil, log.Nop(), nil)

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{FileRef: "x.jpg", Lat: 10, Lon: 10})
	if err == nil {
		t.Fatal("expected detector error to surface")
	}
	if len(store.detections) != 0 {
		t.Errorf("detections persisted after detector failure: %d", len(store.detections))
	}
}

func TestListAlerts_UnknownSubscriber(t *testing.T) {
	t.Parallel()

	svc := NewService(newMockStore(), &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	_, err := svc.ListAlerts(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStats_UnknownSubscriber(t *testing.T) {
	t.Parallel()

	svc := NewService(newMockStore(), &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	_, err := svc.Stats(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStats_CountsBySpecies(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("u-1", 10, 10, 50)}}
	svc := NewService(store, profiles, testClassifier(t), nil, nil, log.Nop(), nil)

	for _, sp := range []string{"tiger", "tiger", "leopard"} {
		if _, err := svc.Ingest(context.Background(), &IngestRequest{
			Species: sp, Lat: 10, Lon: 10, Confidence: 0.9,
		}); err != nil {
			t.Fatalf("Ingest %s: %v", sp, err)
		}
	}

	counts, err := svc.Stats(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if counts["tiger"] != 2 || counts["leopard"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSweepOnce_RecoversUnalertedDetections(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	profiles := &mockProfiles{profiles: []profile.Profile{nearbyProfile("u-1", 10, 10, 5)}}
	svc := NewService(store, profiles, testClassifier(t), nil, nil, log.Nop(), nil)

	// A detection persisted before a crash, with fan-out never run.
	stale := &Detection{
		ID: "d-stale", Species: "tiger", Lat: 10, Lon: 10, Confidence: 90,
		DetectedAt: time.Now().UTC().Add(-time.Hour),
	}
	if err := store.CreateDetection(context.Background(), stale); err != nil {
		t.Fatalf("CreateDetection: %v", err)
	}

	recovered, err := svc.SweepOnce(context.Background(), 5*time.Minute)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if recovered != 1 {
		t.Errorf("recovered = %d, want 1", recovered)
	}

	records, err := store.ListForUser(context.Background(), "u-1", 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("alerts after sweep = %d, want 1", len(records))
	}

	// Second sweep finds nothing.
	recovered, err = svc.SweepOnce(context.Background(), 5*time.Minute)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if recovered != 0 {
		t.Errorf("second sweep recovered = %d, want 0", recovered)
	}
}

func TestSweepOnce_ZeroMatchesNotCountedRecovered(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	// Stale detection in an area with no subscribers: fan-out re-runs but
	// produces nothing, so the sweep must not report it as recovered.
	stale := &Detection{
		ID: "d-lonely", Species: "tiger", Lat: 10, Lon: 10, Confidence: 90,
		DetectedAt: time.Now().UTC().Add(-time.Hour),
	}
	if err := store.CreateDetection(context.Background(), stale); err != nil {
		t.Fatalf("CreateDetection: %v", err)
	}

	for i := 0; i < 2; i++ {
		recovered, err := svc.SweepOnce(context.Background(), 5*time.Minute)
		if err != nil {
			t.Fatalf("SweepOnce: %v", err)
		}
		if recovered != 0 {
			t.Errorf("sweep %d recovered = %d, want 0 with no matching subscribers", i+1, recovered)
		}
	}
}

func TestSweepOnce_RespectsGrace(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockProfiles{}, testClassifier(t), nil, nil, log.Nop(), nil)

	fresh := &Detection{
		ID: "d-fresh", Species: "lion", Lat: 10, Lon: 10, Confidence: 90,
		DetectedAt: time.Now().UTC(),
	}
	if err := store.CreateDetection(context.Background(), fresh); err != nil {
		t.Fatalf("CreateDetection: %v", err)
	}

	recovered, err := svc.SweepOnce(context.Background(), 5*time.Minute)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if recovered != 0 {
		t.Errorf("recovered = %d, want 0 inside grace window", recovered)
	}
}
