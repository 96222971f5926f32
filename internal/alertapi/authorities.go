package alertapi

import (
	"math"
	"net/http"
	"strconv"
)

func (a *API) handleNearestAuthority(w http.ResponseWriter, r *http.Request) {
	lat, err := parseCoord(r.URL.Query().Get("lat"), -90, 90)
	if err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lat"})
		return
	}
	lon, err := parseCoord(r.URL.Query().Get("lon"), -180, 180)
	if err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lon"})
		return
	}

	nearest, ok := a.authority.Nearest(lat, lon)
	if !ok {
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no office found"})
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"nearest": nearest})
}

func parseCoord(s string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < min || v > max {
		return 0, strconv.ErrRange
	}
	return v, nil
}
