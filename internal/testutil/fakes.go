// Fake collaborators for pipeline and API tests.

package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/athulyan/docforge-go/internal/models"
)

// FakeExtractor counts invocations and returns canned text, or fails on
// selected calls.
type FakeExtractor struct {
	Text     string
	FailNext int32 // number of upcoming calls that should fail
	calls    int32
}

func (f *FakeExtractor) Extract(ctx context.Context, imageData []byte) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if atomic.LoadInt32(&f.FailNext) > 0 {
		atomic.AddInt32(&f.FailNext, -1)
		return "", errors.New("extraction engine unavailable")
	}
	if f.Text == "" {
		return "extracted text", nil
	}
	return f.Text, nil
}

// Calls returns how many times Extract ran.
func (f *FakeExtractor) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

// FakeAnalyzer returns a fixed analysis, or an error when Err is set.
type FakeAnalyzer struct {
	Err   error
	calls int32
}

func (f *FakeAnalyzer) Analyze(ctx context.Context, text string) (*models.AiAnalysis, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.Err != nil {
		return nil, f.Err
	}
	return &models.AiAnalysis{
		DocumentType: "invoice",
		Confidence:   0.92,
		ExtractedFields: map[string]string{
			"total": "41.99",
		},
		Summary: "An invoice.",
	}, nil
}

// Calls returns how many times Analyze ran.
func (f *FakeAnalyzer) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

// RecordingPublisher captures every progress update for assertions.
type RecordingPublisher struct {
	mu      sync.Mutex
	updates []models.ProgressUpdate
}

func (p *RecordingPublisher) Publish(update models.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, update)
}

// Updates returns a copy of the captured updates.
func (p *RecordingPublisher) Updates() []models.ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ProgressUpdate, len(p.updates))
	copy(out, p.updates)
	return out
}
