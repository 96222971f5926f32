// Package webhook posts wildlife alert notifications to an HTTP webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/wildwatch/internal/alert"
)

const httpTimeout = 10 * time.Second

// Notifier sends alert notifications to a configured webhook endpoint.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a webhook notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

type payload struct {
	Event           string   `json:"event"`
	Severity        string   `json:"severity"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	Species         string   `json:"species"`
	ConfidencePct   float64  `json:"confidence_pct"`
	Lat             float64  `json:"lat"`
	Lon             float64  `json:"lon"`
	DetectionID     string   `json:"detection_id"`
	DetectedAt      string   `json:"detected_at"`
	AlertsCreated   int      `json:"alerts_created"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Send posts the notification to the configured webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, notif *alert.Notification) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(payload{
		Event:           "wildlife_alert",
		Severity:        string(notif.Severity),
		Title:           notif.Title,
		Message:         notif.Body,
		Species:         notif.Detection.Species,
		ConfidencePct:   notif.Detection.Confidence,
		Lat:             notif.Detection.Lat,
		Lon:             notif.Detection.Lon,
		DetectionID:     notif.Detection.ID,
		DetectedAt:      notif.Detection.DetectedAt.UTC().Format(time.RFC3339),
		AlertsCreated:   notif.AlertsCreated,
		Recommendations: notif.Recommendations,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
