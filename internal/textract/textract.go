// This file defines the text-extraction collaborator interface and its HTTP
// adapter. The pipeline only depends on the Engine shape; the adapter is a
// thin client for an external OCR service.

package textract

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Engine extracts text from a rendered page image.
type Engine interface {
	Extract(ctx context.Context, imageData []byte) (string, error)
}

// HTTPEngine posts page images to an OCR service and returns the recognized
// text.
type HTTPEngine struct {
	client   *resty.Client
	endpoint string
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewHTTPEngine creates a client for the given OCR endpoint.
func NewHTTPEngine(endpoint string) *HTTPEngine {
	client := resty.New().
		SetTimeout(2 * time.Minute).
		SetRetryCount(0) // retries are the caller's policy, not the client's
	return &HTTPEngine{client: client, endpoint: endpoint}
}

func (e *HTTPEngine) Extract(ctx context.Context, imageData []byte) (string, error) {
	if e.endpoint == "" {
		return "", fmt.Errorf("ocr endpoint is not configured")
	}

	var out extractResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetFileReader("image", "page.jpg", bytes.NewReader(imageData)).
		SetResult(&out).
		Post(e.endpoint)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ocr service returned %s", resp.Status())
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr service error: %s", out.Error)
	}
	return out.Text, nil
}
