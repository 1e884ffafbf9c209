package store_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulyan/docforge-go/internal/models"
	"github.com/athulyan/docforge-go/internal/store"
	"github.com/athulyan/docforge-go/internal/testutil"
)

func sampleResult() *models.ProcessingResult {
	return &models.ProcessingResult{
		Success: true,
		Message: "Processed successfully",
		ProcessedImage: &models.ImageArtifact{
			FileName:       "scan.png",
			OriginalFormat: "png",
			Width:          120,
			Height:         80,
			ImagePath:      "jobs/j1/scan_page_001.jpg",
			ThumbnailPath:  "jobs/j1/scan_thumb_001.jpg",
			PageCount:      1,
		},
		ExtractedText: "hello",
		AiAnalysis: &models.AiAnalysis{
			DocumentType: "receipt",
			Confidence:   0.8,
		},
		Metrics: models.Metrics{TotalMs: 42},
	}
}

func TestSaveAndGetResult(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))

	require.NoError(t, st.SaveResult("job-1", sampleResult()))

	doc, err := st.GetByJobID("job-1")
	require.NoError(t, err)
	assert.Equal(t, "scan.png", doc.FileName)
	assert.Equal(t, "png", doc.OriginalFormat)
	assert.True(t, doc.Success)
	assert.Equal(t, 120, doc.Width)
	assert.Equal(t, 80, doc.Height)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, "hello", doc.ExtractedText)
	assert.Contains(t, doc.AiAnalysisJSON, "receipt")
	assert.Equal(t, int64(42), doc.TotalMs)
}

func TestSaveResult_UpsertsByJobID(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))

	require.NoError(t, st.SaveResult("job-1", sampleResult()))

	updated := sampleResult()
	updated.Success = false
	updated.Message = "decode: broken"
	require.NoError(t, st.SaveResult("job-1", updated))

	doc, err := st.GetByJobID("job-1")
	require.NoError(t, err)
	assert.False(t, doc.Success)
	assert.Equal(t, "decode: broken", doc.Message)

	docs, err := st.ListRecent(10)
	require.NoError(t, err)
	assert.Len(t, docs, 1, "re-saving a job must not add a row")
}

func TestGetByJobID_Unknown(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))

	_, err := st.GetByJobID("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSaveResult_FailureWithoutArtifact(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))

	require.NoError(t, st.SaveResult("job-1", &models.ProcessingResult{
		Success: false,
		Message: "validation: file does not exist",
	}))

	doc, err := st.GetByJobID("job-1")
	require.NoError(t, err)
	assert.False(t, doc.Success)
	assert.Empty(t, doc.ImagePath)
}

func TestListRecent_NewestFirst(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))

	for _, id := range []string{"job-1", "job-2", "job-3"} {
		require.NoError(t, st.SaveResult(id, sampleResult()))
	}

	docs, err := st.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "job-3", docs[0].JobID)
	assert.Equal(t, "job-2", docs[1].JobID)
}

func TestDeleteOlderThan(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))

	require.NoError(t, st.SaveResult("job-1", sampleResult()))

	removed, err := st.DeleteOlderThan(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed, "fresh rows survive")

	removed, err = st.DeleteOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	docs, err := st.ListRecent(10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
