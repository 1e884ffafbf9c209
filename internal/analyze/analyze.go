// This file defines the AI-analysis collaborator interface and its HTTP
// adapter. The service receives extracted text and returns structured
// metadata about the document.

package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/athulyan/docforge-go/internal/models"
)

// Analyzer derives structured metadata from extracted document text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.AiAnalysis, error)
}

// HTTPAnalyzer calls an external analysis service over JSON.
type HTTPAnalyzer struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	DocumentType    string            `json:"document_type"`
	Confidence      float64           `json:"confidence"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	Summary         string            `json:"summary,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// NewHTTPAnalyzer creates a client for the given analysis endpoint.
func NewHTTPAnalyzer(endpoint, apiKey string) *HTTPAnalyzer {
	client := resty.New().SetTimeout(2 * time.Minute)
	return &HTTPAnalyzer{client: client, endpoint: endpoint, apiKey: apiKey}
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, text string) (*models.AiAnalysis, error) {
	if a.endpoint == "" {
		return nil, fmt.Errorf("ai endpoint is not configured")
	}

	var out analyzeResponse
	req := a.client.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Text: text}).
		SetResult(&out)
	if a.apiKey != "" {
		req.SetAuthToken(a.apiKey)
	}

	resp, err := req.Post(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analysis service returned %s", resp.Status())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("analysis service error: %s", out.Error)
	}

	return &models.AiAnalysis{
		DocumentType:    out.DocumentType,
		Confidence:      out.Confidence,
		ExtractedFields: out.ExtractedFields,
		Summary:         out.Summary,
	}, nil
}
