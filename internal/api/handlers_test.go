package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulyan/docforge-go/internal/api"
	"github.com/athulyan/docforge-go/internal/core"
	"github.com/athulyan/docforge-go/internal/models"
	"github.com/athulyan/docforge-go/internal/store"
	"github.com/athulyan/docforge-go/internal/testutil"
)

func setupServer(t *testing.T) (*httptest.Server, *core.App) {
	t.Helper()
	cfg := testutil.NewTestConfig(t)
	app, err := core.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	go app.WsHub().Run()

	ts := httptest.NewServer(api.NewServer(app).Router())
	t.Cleanup(ts.Close)
	return ts, app
}

func uploadDocument(t *testing.T, ts *httptest.Server, fileName string, data []byte) string {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("generate_thumbnail", "true"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(ts.URL+"/api/documents", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload["job_id"])
	return payload["job_id"]
}

func waitForTerminal(t *testing.T, ts *httptest.Server, jobID string) models.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/jobs/" + jobID)
		require.NoError(t, err)
		var job models.Job
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
		resp.Body.Close()
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Job %s never reached a terminal state", jobID)
	return models.Job{}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListFormats(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/formats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Contains(t, payload["supported_extensions"], ".pdf")
	assert.Contains(t, payload["supported_extensions"], ".png")
	assert.Contains(t, payload["supported_extensions"], ".zip")
}

func TestSubmitDocument_FullLifecycle(t *testing.T) {
	ts, _ := setupServer(t)

	jobID := uploadDocument(t, ts, "scan.png", testutil.PNGBytes(t, 120, 80))
	job := waitForTerminal(t, ts, jobID)
	require.Equal(t, models.JobStatusCompleted, job.Status)

	resp, err := http.Get(ts.URL + "/api/jobs/" + jobID + "/result")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.ProcessingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	require.NotNil(t, result.ProcessedImage)
	assert.Equal(t, 120, result.ProcessedImage.Width)
	assert.NotEmpty(t, result.ProcessedImage.ThumbnailPath)
}

func TestSubmitDocument_CorruptFileFails(t *testing.T) {
	ts, _ := setupServer(t)

	jobID := uploadDocument(t, ts, "broken.png", []byte("not an image"))
	job := waitForTerminal(t, ts, jobID)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
}

func TestSubmitDocument_MissingFileField(t *testing.T) {
	ts, _ := setupServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("extract_text", "true"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(ts.URL+"/api/documents", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetJob_Unknown(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/jobs/no-such-job")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/jobs/no-such-job/result")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestCancelJob_Unknown(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Post(ts.URL+"/api/jobs/no-such-job/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProcessBatch_PartialSuccess(t *testing.T) {
	ts, _ := setupServer(t)

	dir := t.TempDir()
	good := testutil.CreateTestPNG(t, dir, "good.png", 40, 40)
	bad := testutil.CreateCorruptFile(t, dir, "bad.png")

	payload, err := json.Marshal(map[string]interface{}{
		"files":   []string{good, bad},
		"options": models.ProcessingOptions{GenerateThumb: true},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/documents/batch", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Summary string                     `json:"summary"`
		Results []*models.ProcessingResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "1 succeeded, 1 failed", out.Summary)
	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Success)
	assert.False(t, out.Results[1].Success)
}

func TestProcessBatch_EmptyInput(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Post(ts.URL+"/api/documents/batch", "application/json",
		bytes.NewReader([]byte(`{"files": []}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListDocuments_History(t *testing.T) {
	ts, _ := setupServer(t)

	jobID := uploadDocument(t, ts, "scan.png", testutil.PNGBytes(t, 50, 50))
	job := waitForTerminal(t, ts, jobID)
	require.Equal(t, models.JobStatusCompleted, job.Status)

	resp, err := http.Get(ts.URL + "/api/documents")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var docs []*store.ProcessedDocument
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&docs))
	require.NotEmpty(t, docs)
	assert.Equal(t, jobID, docs[0].JobID)
	assert.True(t, docs[0].Success)

	resp2, err := http.Get(ts.URL + "/api/documents/" + jobID)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestListJobs(t *testing.T) {
	ts, _ := setupServer(t)

	jobID := uploadDocument(t, ts, "scan.png", testutil.PNGBytes(t, 30, 30))
	waitForTerminal(t, ts, jobID)

	resp, err := http.Get(ts.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jobs []*models.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.NotEmpty(t, jobs)
}
