// Handlers for document submission, job tracking and processing history.

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/athulyan/docforge-go/internal/jobqueue"
	"github.com/athulyan/docforge-go/internal/models"
	"github.com/athulyan/docforge-go/internal/store"
	"github.com/athulyan/docforge-go/internal/util"
)

const maxUploadSize = 200 << 20 // 200 MB

// handleSubmitDocument accepts a multipart upload, stores it under the
// workspace and enqueues it. The response carries the job id; clients poll
// the job endpoints or subscribe to /ws/progress.
func (s *Server) handleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	uploadDir := filepath.Join(s.app.Config().WorkspacePath, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to prepare upload directory")
		return
	}

	name := util.SanitizeFileName(filepath.Base(header.Filename))
	dest := filepath.Join(uploadDir, fmt.Sprintf("%s_%s", uuid.NewString()[:8], name))
	out, err := os.Create(dest)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		RespondWithError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	out.Close()

	jobID := s.app.Queue().Enqueue(dest, parseOptions(r))

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(models.JobStatusQueued),
	})
}

// parseOptions reads the optional stage toggles from the form. Thumbnails
// default to on.
func parseOptions(r *http.Request) models.ProcessingOptions {
	opts := models.ProcessingOptions{GenerateThumb: true}
	if v := r.FormValue("extract_text"); v != "" {
		opts.ExtractText, _ = strconv.ParseBool(v)
	}
	if v := r.FormValue("analyze_text"); v != "" {
		opts.AnalyzeText, _ = strconv.ParseBool(v)
	}
	if v := r.FormValue("generate_thumbnail"); v != "" {
		opts.GenerateThumb, _ = strconv.ParseBool(v)
	}
	return opts
}

type batchRequest struct {
	Files   []string                 `json:"files"`
	Options models.ProcessingOptions `json:"options"`
}

// handleProcessBatch processes server-local files synchronously and returns
// one result per input alongside a partial-success summary.
func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(req.Files) == 0 {
		RespondWithError(w, http.StatusBadRequest, "No files provided")
		return
	}

	results := s.app.Queue().ProcessBatch(r.Context(), req.Files, req.Options)

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"summary": jobqueue.BatchSummary(results),
		"results": results,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.app.Queue().List()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	RespondWithJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.app.Queue().GetStatus(jobID)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	result, err := s.app.Queue().GetResult(jobID)
	switch {
	case errors.Is(err, jobqueue.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, jobqueue.ErrStillProcessing):
		RespondWithJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
	case err != nil && result == nil:
		// Failed before the pipeline produced a result.
		RespondWithJSON(w, http.StatusOK, &models.ProcessingResult{
			Success: false,
			Message: err.Error(),
		})
	default:
		RespondWithJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.app.Queue().Cancel(jobID) {
		RespondWithError(w, http.StatusConflict, "Job is not cancellable")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// handleListDocuments returns the persisted processing history, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	docs, err := s.store.ListRecent(limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []*store.ProcessedDocument{}
	}
	RespondWithJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	doc, err := s.store.GetByJobID(jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RespondWithError(w, http.StatusNotFound, "Document not found")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}
	RespondWithJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string][]string{
		"supported_extensions": s.app.Pipeline().SupportedExtensions(),
	})
}
