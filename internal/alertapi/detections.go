package alertapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/wildwatch/internal/alert"
)

type ingestPayload struct {
	Species    string  `json:"species"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Confidence float64 `json:"confidence"`
	FilePath   string  `json:"file_path"`
	UserID     string  `json:"user_id"`
}

func (a *API) handleIngestDetection(w http.ResponseWriter, r *http.Request) {
	var p ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("wildwatch.detection.species", p.Species))

	res, err := a.svc.Ingest(r.Context(), &alert.IngestRequest{
		Species:    p.Species,
		Lat:        p.Lat,
		Lon:        p.Lon,
		Confidence: p.Confidence,
		FilePath:   p.FilePath,
		UserID:     p.UserID,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.Int("wildwatch.detection.alerts_created", res.AlertsCreated))
	a.writeJSON(w, http.StatusCreated, res)
}

type analyzePayload struct {
	FileRef string  `json:"file_ref"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	UserID  string  `json:"user_id"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var p analyzePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	res, err := a.svc.Analyze(r.Context(), &alert.AnalyzeRequest{
		FileRef: p.FileRef,
		Lat:     p.Lat,
		Lon:     p.Lon,
		UserID:  p.UserID,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, res)
}
