package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Client calls an external detection service over HTTP.
type Client struct {
	http *resty.Client
}

type detectRequest struct {
	FileRef string `json:"file_ref"`
}

type detectResponse struct {
	Detections []Candidate `json:"detections"`
	Error      string      `json:"error,omitempty"`
}

// NewClient creates a detector client for the given endpoint. A
// non-positive timeout falls back to the default. The timeout is a hard
// bound on the whole request; hitting it fails the detection call.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// Detect asks the detection service to examine fileRef and returns its
// candidate list.
func (c *Client) Detect(ctx context.Context, fileRef string) ([]Candidate, error) {
	var out detectResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(detectRequest{FileRef: fileRef}).
		SetResult(&out).
		Post("/v1/detect")
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}

	if resp.IsError() {
		if out.Error != "" {
			return nil, fmt.Errorf("detector returned %d: %s", resp.StatusCode(), out.Error)
		}
		return nil, fmt.Errorf("detector returned %d", resp.StatusCode())
	}

	return out.Detections, nil
}
