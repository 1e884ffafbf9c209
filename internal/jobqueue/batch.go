package jobqueue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/athulyan/docforge-go/internal/models"
)

// ProcessBatch runs every file synchronously under the shared governor and
// returns one result per input, in input order. Individual failures never
// cross into other files' results.
func (q *Queue) ProcessBatch(ctx context.Context, files []string, opts models.ProcessingOptions) []*models.ProcessingResult {
	results := make([]*models.ProcessingResult, len(files))

	errs := q.gov.RunBatch(ctx, len(files), func(taskCtx context.Context, i int) error {
		res, err := q.processor.Process(taskCtx, uuid.NewString(), files[i], opts)
		if res == nil {
			res = &models.ProcessingResult{Success: false, Message: errMessage(err)}
		}
		results[i] = res
		return err
	})

	// Items skipped by cancellation never ran the processor; give them a
	// result so callers always get one entry per input.
	for i, res := range results {
		if res == nil {
			results[i] = &models.ProcessingResult{Success: false, Message: errMessage(errs[i])}
		}
	}

	return results
}

// BatchSummary formats the partial-success tally for a batch.
func BatchSummary(results []*models.ProcessingResult) string {
	succeeded := 0
	for _, r := range results {
		if r != nil && r.Success {
			succeeded++
		}
	}
	return fmt.Sprintf("%d succeeded, %d failed", succeeded, len(results)-succeeded)
}

func errMessage(err error) string {
	if err == nil {
		return "processing failed"
	}
	return err.Error()
}
