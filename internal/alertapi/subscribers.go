package alertapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/wildwatch/internal/alert"
	"github.com/linnemanlabs/wildwatch/internal/profile"
)

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := a.svc.ListAlerts(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []alert.Record{}
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"alerts": records,
		"count":  len(records),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	counts, err := a.svc.Stats(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"species_counts": counts,
		"total_alerts":   total,
	})
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok, err := a.profiles.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	a.writeJSON(w, http.StatusOK, p)
}

type profilePayload struct {
	Occupation  string               `json:"occupation"`
	Address     string               `json:"address"`
	AreaType    string               `json:"area_type"`
	Phone       string               `json:"phone"`
	Lat         *float64             `json:"lat"`
	Lon         *float64             `json:"lon"`
	RadiusKm    *float64             `json:"radius_km"`
	Preferences *profile.Preferences `json:"preferences"`
}

func (a *API) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p profilePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if err := validateProfile(&p); err != nil {
		a.writeError(w, r, err)
		return
	}

	prof := &profile.Profile{
		UserID:     id,
		Occupation: p.Occupation,
		Address:    p.Address,
		AreaType:   p.AreaType,
		Phone:      p.Phone,
		Lat:        p.Lat,
		Lon:        p.Lon,
		RadiusKm:   p.RadiusKm,
	}
	if p.Preferences != nil {
		prof.Preferences = *p.Preferences
	} else {
		prof.Preferences = profile.DefaultPreferences()
	}
	// A subscriber with a location but no radius gets the default radius,
	// so saving a location is enough to start receiving alerts.
	if prof.Lat != nil && prof.RadiusKm == nil {
		def := profile.DefaultRadiusKm
		prof.RadiusKm = &def
	}

	if err := a.profiles.Put(r.Context(), prof); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, prof)
}

func validateProfile(p *profilePayload) error {
	if (p.Lat == nil) != (p.Lon == nil) {
		return &alert.ValidationError{Field: "lat", Msg: "lat and lon must be set together"}
	}
	if p.Lat != nil {
		if *p.Lat < -90 || *p.Lat > 90 {
			return &alert.ValidationError{Field: "lat", Msg: "outside [-90,90]"}
		}
		if *p.Lon < -180 || *p.Lon > 180 {
			return &alert.ValidationError{Field: "lon", Msg: "outside [-180,180]"}
		}
	}
	if p.RadiusKm != nil && *p.RadiusKm < 0 {
		return &alert.ValidationError{Field: "radius_km", Msg: "must be non-negative"}
	}
	return nil
}
