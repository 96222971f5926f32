package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linnemanlabs/wildwatch/internal/alert"
	"github.com/linnemanlabs/wildwatch/internal/species"
)

func sampleNotification() *alert.Notification {
	return &alert.Notification{
		Detection: alert.Detection{
			ID:         "d-1",
			Species:    "leopard",
			Lat:        28.6139,
			Lon:        77.2090,
			Confidence: 92,
			DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Severity:        species.SeverityCritical,
		Title:           "CRITICAL WILDLIFE ALERT",
		Body:            "leopard detected with 92.0% confidence",
		Recommendations: []string{"Stay indoors"},
		AlertsCreated:   3,
	}
}

func TestSend_PostsPayload(t *testing.T) {
	t.Parallel()

	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL)
	if err := n.Send(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.Event != "wildlife_alert" {
		t.Errorf("event = %q", got.Event)
	}
	if got.Severity != "critical" {
		t.Errorf("severity = %q, want critical", got.Severity)
	}
	if got.Species != "leopard" || got.ConfidencePct != 92 {
		t.Errorf("species/confidence = %q/%v", got.Species, got.ConfidencePct)
	}
	if got.AlertsCreated != 3 {
		t.Errorf("alerts_created = %d, want 3", got.AlertsCreated)
	}
	if len(got.Recommendations) != 1 {
		t.Errorf("recommendations = %v", got.Recommendations)
	}
}

func TestSend_EmptyURLIsNoop(t *testing.T) {
	t.Parallel()

	n := New("")
	if err := n.Send(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Send with empty URL: %v", err)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(srv.URL)
	if err := n.Send(context.Background(), sampleNotification()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := New(srv.URL)
	if err := n.Send(ctx, sampleNotification()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
