// Package detect defines the external object-detection collaborator. The
// model itself is a black box behind an HTTP service; this package only
// carries its candidate shape and a client with a hard timeout.
package detect

import "context"

// Candidate is one raw detection reported by the external detector.
// Confidence is a fraction in [0,1]; conversion to the stored percentage
// is the ingestion boundary's job.
type Candidate struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// Detector examines a previously uploaded file and returns every candidate
// it found. Implementations must honor ctx cancellation; a slow detector
// is bounded by the client timeout and surfaces as an error.
type Detector interface {
	Detect(ctx context.Context, fileRef string) ([]Candidate, error)
}
