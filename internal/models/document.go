// This file defines the core data structures (models) for our application.
// These structs represent jobs, processing results, and the image artifacts
// produced for each input document.

package models

import "time"

// JobStatus tracks where a job is in its lifecycle. Transitions only move
// forward: queued -> processing -> completed or failed.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a tracked unit of work with a lifecycle state and eventual result.
type Job struct {
	ID           string            `json:"id"`
	Status       JobStatus         `json:"status"`
	FilePath     string            `json:"file_path"`
	CreatedAt    time.Time         `json:"created_at"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Result       *ProcessingResult `json:"result,omitempty"`
}

// ProcessingOptions controls the optional stages of a pipeline run.
type ProcessingOptions struct {
	ExtractText   bool `json:"extract_text"`
	AnalyzeText   bool `json:"analyze_text"`
	GenerateThumb bool `json:"generate_thumbnail"`
}

// ProcessingResult is assembled once, at pipeline completion, and never
// mutated after being returned.
type ProcessingResult struct {
	Success        bool             `json:"success"`
	Message        string           `json:"message"`
	ProcessedImage *ImageArtifact   `json:"processed_image,omitempty"`
	SplitPages     []*ImageArtifact `json:"split_pages,omitempty"`
	Metrics        Metrics          `json:"metrics"`
	ExtractedText  string           `json:"extracted_text,omitempty"`
	AiAnalysis     *AiAnalysis      `json:"ai_analysis,omitempty"`
}

// ImageArtifact describes one normalized rendition written to storage.
// Paths are relative to the workspace root.
type ImageArtifact struct {
	FileName       string `json:"file_name"`
	OriginalFormat string `json:"original_format"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	FileSizeBytes  int64  `json:"file_size_bytes"`
	ImagePath      string `json:"image_path"`
	ThumbnailPath  string `json:"thumbnail_path,omitempty"`
	PageCount      int    `json:"page_count"`
	IsMultiPage    bool   `json:"is_multi_page"`
}

// Metrics captures per-stage elapsed time for a single pipeline run.
type Metrics struct {
	DecodeMs    int64 `json:"decode_ms"`
	ConvertMs   int64 `json:"convert_ms"`
	ThumbnailMs int64 `json:"thumbnail_ms"`
	TotalMs     int64 `json:"total_ms"`
}

// AiAnalysis is the structured result returned by the AI collaborator.
type AiAnalysis struct {
	DocumentType    string            `json:"document_type"`
	Confidence      float64           `json:"confidence"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	Summary         string            `json:"summary,omitempty"`
}
