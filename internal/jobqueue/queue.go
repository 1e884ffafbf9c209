// This file implements the in-memory job queue and lifecycle state machine.
// Enqueue returns immediately; processing runs asynchronously under a
// governor permit. Jobs move Queued -> Processing -> Completed/Failed and
// never leave a terminal state. Job records live only in memory; a restart
// starts with an empty queue.

package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/athulyan/docforge-go/internal/governor"
	"github.com/athulyan/docforge-go/internal/models"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrStillProcessing is returned by GetResult before the job is terminal.
	ErrStillProcessing = errors.New("job is still processing")
	// ErrCancelled marks jobs failed through Cancel.
	ErrCancelled = errors.New("job cancelled")
)

// Processor runs the pipeline for one file. Satisfied by *pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, jobID, filePath string, opts models.ProcessingOptions) (*models.ProcessingResult, error)
}

// Queue owns every job record. It is the only writer; readers get copies.
type Queue struct {
	gov       *governor.Governor
	processor Processor

	mu      sync.RWMutex
	jobs    map[string]*models.Job
	cancels map[string]context.CancelFunc

	baseCtx context.Context
	wg      sync.WaitGroup
}

// New creates a queue executing jobs through the given processor under the
// governor's permit pool. baseCtx bounds the lifetime of all async work.
func New(baseCtx context.Context, gov *governor.Governor, processor Processor) *Queue {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Queue{
		gov:       gov,
		processor: processor,
		jobs:      make(map[string]*models.Job),
		cancels:   make(map[string]context.CancelFunc),
		baseCtx:   baseCtx,
	}
}

// Enqueue registers a job and schedules it. It returns the job id without
// waiting for a permit or for processing.
func (q *Queue) Enqueue(filePath string, opts models.ProcessingOptions) string {
	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobStatusQueued,
		FilePath:  filePath,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithCancel(q.baseCtx)

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.cancels[job.ID] = cancel
	q.mu.Unlock()

	q.wg.Add(1)
	go q.run(ctx, job.ID, filePath, opts)

	return job.ID
}

// run waits for a permit, executes the pipeline, and records the outcome.
func (q *Queue) run(ctx context.Context, jobID, filePath string, opts models.ProcessingOptions) {
	defer q.wg.Done()
	defer q.clearCancel(jobID)

	err := q.gov.Run(ctx, func(ctx context.Context) error {
		// The job counts as Processing only while it holds a permit.
		q.setProcessing(jobID)

		defer func() {
			if r := recover(); r != nil {
				log.Printf("Job %s panicked: %v", jobID, r)
				q.setFailed(jobID, fmt.Errorf("job panicked: %v", r), nil)
			}
		}()

		result, perr := q.processor.Process(ctx, jobID, filePath, opts)
		if perr != nil {
			q.setFailed(jobID, perr, result)
			return nil
		}
		q.setCompleted(jobID, result)
		return nil
	})
	if err != nil {
		// Permit wait was interrupted (shutdown or Cancel before admission).
		q.setFailed(jobID, fmt.Errorf("%w: %v", ErrCancelled, err), nil)
	}
}

// Cancel interrupts a queued or processing job. Terminal jobs are left
// untouched and report false.
func (q *Queue) Cancel(jobID string) bool {
	q.mu.RLock()
	job, ok := q.jobs[jobID]
	cancel := q.cancels[jobID]
	terminal := ok && job.Status.Terminal()
	q.mu.RUnlock()

	if !ok || terminal || cancel == nil {
		return false
	}
	cancel()
	return true
}

// GetStatus returns a snapshot of the job.
func (q *Queue) GetStatus(jobID string) (*models.Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// GetResult returns the terminal result for a job. Unknown ids yield
// ErrNotFound, non-terminal jobs ErrStillProcessing, and failed jobs an
// error carrying the recorded failure reason.
func (q *Queue) GetResult(jobID string) (*models.ProcessingResult, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	switch job.Status {
	case models.JobStatusCompleted:
		return job.Result, nil
	case models.JobStatusFailed:
		return job.Result, fmt.Errorf("job failed: %s", job.ErrorMessage)
	default:
		return nil, ErrStillProcessing
	}
}

// List returns snapshots of all jobs, for the API listing endpoint.
func (q *Queue) List() []*models.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	jobs := make([]*models.Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	return jobs
}

// CountByStatus reports how many jobs are currently in the given status.
func (q *Queue) CountByStatus(status models.JobStatus) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	n := 0
	for _, job := range q.jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

// PruneTerminal drops terminal jobs older than the retention window and
// returns how many were removed. Live jobs are never pruned.
func (q *Queue) PruneTerminal(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	for id, job := range q.jobs {
		if job.Status.Terminal() && job.CreatedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	return removed
}

// Wait blocks until all in-flight jobs have finished. Used by shutdown and
// tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) setProcessing(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok && job.Status == models.JobStatusQueued {
		job.Status = models.JobStatusProcessing
	}
}

func (q *Queue) setCompleted(jobID string, result *models.ProcessingResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = models.JobStatusCompleted
		job.Result = result
	}
}

func (q *Queue) setFailed(jobID string, err error, result *models.ProcessingResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = models.JobStatusFailed
		job.ErrorMessage = err.Error()
		job.Result = result
	}
}

func (q *Queue) clearCancel(jobID string) {
	q.mu.Lock()
	if cancel, ok := q.cancels[jobID]; ok {
		delete(q.cancels, jobID)
		q.mu.Unlock()
		cancel() // release the context's resources
		return
	}
	q.mu.Unlock()
}
