// This file implements the progress reporter the pipeline emits through.
// Publishing is fire-and-forget; a failing or absent broadcaster never
// affects the run. Percentages for a job only move forward.

package pipeline

import (
	"sync"

	"github.com/athulyan/docforge-go/internal/models"
)

// Publisher delivers progress updates to whoever is listening. The
// WebSocket hub satisfies this; tests use a recording fake.
type Publisher interface {
	Publish(update models.ProgressUpdate)
}

// NopPublisher discards updates. Used by the CLI and by tests that don't
// care about progress.
type NopPublisher struct{}

func (NopPublisher) Publish(models.ProgressUpdate) {}

// Reporter scopes progress to a single job and enforces the monotonic
// percentage invariant: values never decrease, completion pins to 100 and
// failure freezes the last reported value.
type Reporter struct {
	pub        Publisher
	jobID      string
	file       string
	totalPages int

	mu   sync.Mutex
	last float64
	done bool
}

// NewReporter creates a reporter for one job. pub may be nil.
func NewReporter(pub Publisher, jobID, file string) *Reporter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Reporter{pub: pub, jobID: jobID, file: file}
}

// SetTotalPages records the page count once the document is decoded.
func (r *Reporter) SetTotalPages(n int) {
	r.mu.Lock()
	r.totalPages = n
	r.mu.Unlock()
}

// Step publishes an in-progress update. A percentage lower than a previous
// report is clamped up to the last value.
func (r *Reporter) Step(pct float64, page int, message string) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if pct < r.last {
		pct = r.last
	}
	if pct > 100 {
		pct = 100
	}
	r.last = pct
	update := r.update(models.JobStatusProcessing, pct, page, message, "")
	r.mu.Unlock()

	r.pub.Publish(update)
}

// Completed pins the percentage at 100 and marks the report stream done.
func (r *Reporter) Completed(message string) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.last = 100
	update := r.update(models.JobStatusCompleted, 100, r.totalPages, message, "")
	update.Done = true
	r.mu.Unlock()

	r.pub.Publish(update)
}

// Failed freezes the percentage at its current value and reports the error.
func (r *Reporter) Failed(errMessage string) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	update := r.update(models.JobStatusFailed, r.last, 0, "Processing failed", errMessage)
	update.Done = true
	r.mu.Unlock()

	r.pub.Publish(update)
}

func (r *Reporter) update(status models.JobStatus, pct float64, page int, message, errMessage string) models.ProgressUpdate {
	return models.ProgressUpdate{
		JobID:        r.jobID,
		Status:       string(status),
		CurrentFile:  r.file,
		TotalFiles:   1,
		CurrentPage:  page,
		TotalPages:   r.totalPages,
		Progress:     pct,
		Message:      message,
		ErrorMessage: errMessage,
	}
}
