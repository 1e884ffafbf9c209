package jobqueue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulyan/docforge-go/internal/governor"
	"github.com/athulyan/docforge-go/internal/jobqueue"
	"github.com/athulyan/docforge-go/internal/models"
)

func TestProcessBatch_PartialSuccess(t *testing.T) {
	proc := &fakeProcessor{failOn: "/tmp/bad.png"}
	q := jobqueue.New(context.Background(), governor.New(2), proc)

	files := []string{"/tmp/a.png", "/tmp/bad.png", "/tmp/c.png"}
	results := q.ProcessBatch(context.Background(), files, models.ProcessingOptions{})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Message)
	assert.True(t, results[2].Success)

	assert.Equal(t, "2 succeeded, 1 failed", jobqueue.BatchSummary(results))
}

func TestProcessBatch_LargeInputBounded(t *testing.T) {
	proc := &fakeProcessor{}
	q := jobqueue.New(context.Background(), governor.New(2), proc)

	files := make([]string, 50)
	for i := range files {
		files[i] = "/tmp/file.png"
	}
	results := q.ProcessBatch(context.Background(), files, models.ProcessingOptions{})

	require.Len(t, results, 50)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}
