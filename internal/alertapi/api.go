// Package alertapi exposes the wildlife alert service over HTTP.
package alertapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/wildwatch/internal/alert"
	"github.com/linnemanlabs/wildwatch/internal/authority"
	"github.com/linnemanlabs/wildwatch/internal/profile"
)

// AlertService defines the business operations alertapi needs.
type AlertService interface {
	Ingest(ctx context.Context, req *alert.IngestRequest) (*alert.IngestResult, error)
	Analyze(ctx context.Context, req *alert.AnalyzeRequest) (*alert.AnalyzeResult, error)
	ListAlerts(ctx context.Context, userID string) ([]alert.Record, error)
	Stats(ctx context.Context, userID string) (map[string]int, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger    log.Logger
	svc       AlertService
	profiles  profile.Store
	authority *authority.Directory
}

// New creates a new API handler.
func New(logger log.Logger, svc AlertService, profiles profile.Store, directory *authority.Directory) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("alert service is required"))
	}
	if profiles == nil {
		panic(xerrors.New("profile store is required"))
	}
	if directory == nil {
		directory = authority.New(authority.DefaultOffices())
	}
	return &API{
		logger:    logger,
		svc:       svc,
		profiles:  profiles,
		authority: directory,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/detections", a.handleIngestDetection)
		r.Post("/detections/analyze", a.handleAnalyze)
		r.Route("/subscribers/{id}", func(r chi.Router) {
			r.Get("/alerts", a.handleListAlerts)
			r.Get("/stats", a.handleStats)
			r.Get("/profile", a.handleGetProfile)
			r.Put("/profile", a.handlePutProfile)
		})
		r.Get("/authorities/nearest", a.handleNearestAuthority)
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses: validation failures are
// the caller's fault, missing subscribers are 404, anything else is opaque.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *alert.ValidationError
	switch {
	case errors.As(err, &verr):
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
	case errors.Is(err, alert.ErrNotFound):
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		a.logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
