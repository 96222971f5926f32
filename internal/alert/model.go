package alert

import "time"

// Detection is a recorded sighting of a species at a coordinate. Immutable
// once created.
//
// Confidence is stored as a percentage (0-100). The detector collaborator
// and the species classifier both operate on fractions in [0,1]; the
// conversion happens exactly once, at ingestion.
type Detection struct {
	ID         string    `json:"id"`
	Species    string    `json:"species"` // normalized lowercase
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Confidence float64   `json:"confidence"` // percent, 0-100
	FilePath   string    `json:"file_path,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	UserID     string    `json:"user_id,omitempty"` // originating user, optional
}

// Alert links a subscriber to a detection they were notified about.
// Created at most once per (subscriber, detection) pair; never mutated or
// deleted by the core.
type Alert struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DetectionID string    `json:"detection_id"`
	DistanceKm  float64   `json:"distance_km"` // rounded to 2 decimals
	CreatedAt   time.Time `json:"created_at"`  // fan-out time, not detection time
}

// Record is an alert joined with its triggering detection, the shape
// returned when listing a subscriber's alerts.
type Record struct {
	ID         string    `json:"alert_id"`
	DistanceKm float64   `json:"distance_km"`
	CreatedAt  time.Time `json:"created_at"`
	Species    string    `json:"species"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	DetectedAt time.Time `json:"detected_at"`
	Confidence float64   `json:"confidence"` // percent, 0-100
}
