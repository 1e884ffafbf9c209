// To handle all database interactions. This is our data access layer,
// keeping SQL queries separate from business logic. Processed-document rows
// are an audit trail of terminal pipeline results; the live job state lives
// in the in-memory queue, not here.

package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/athulyan/docforge-go/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ProcessedDocument is one persisted pipeline outcome.
type ProcessedDocument struct {
	ID             int64     `json:"id"`
	JobID          string    `json:"job_id"`
	FileName       string    `json:"file_name"`
	OriginalFormat string    `json:"original_format"`
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	PageCount      int       `json:"page_count"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	ImagePath      string    `json:"image_path"`
	ThumbnailPath  string    `json:"thumbnail_path"`
	ExtractedText  string    `json:"extracted_text,omitempty"`
	AiAnalysisJSON string    `json:"ai_analysis,omitempty"`
	TotalMs        int64     `json:"total_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveResult records a terminal ProcessingResult for a job. Re-saving the
// same job id overwrites the previous row.
func (s *Store) SaveResult(jobID string, res *models.ProcessingResult) error {
	var (
		fileName, format, imagePath, thumbPath string
		width, height                          int
		pageCount                              = 1
	)
	if res.ProcessedImage != nil {
		fileName = res.ProcessedImage.FileName
		format = res.ProcessedImage.OriginalFormat
		imagePath = res.ProcessedImage.ImagePath
		thumbPath = res.ProcessedImage.ThumbnailPath
		width = res.ProcessedImage.Width
		height = res.ProcessedImage.Height
		pageCount = res.ProcessedImage.PageCount
	}

	aiJSON := ""
	if res.AiAnalysis != nil {
		if data, err := json.Marshal(res.AiAnalysis); err == nil {
			aiJSON = string(data)
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO processed_documents
			(job_id, file_name, original_format, success, message, page_count,
			 width, height, image_path, thumbnail_path, extracted_text, ai_analysis, total_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			success = excluded.success,
			message = excluded.message,
			page_count = excluded.page_count,
			width = excluded.width,
			height = excluded.height,
			image_path = excluded.image_path,
			thumbnail_path = excluded.thumbnail_path,
			extracted_text = excluded.extracted_text,
			ai_analysis = excluded.ai_analysis,
			total_ms = excluded.total_ms;`,
		jobID, fileName, format, res.Success, res.Message, pageCount,
		width, height, imagePath, thumbPath, res.ExtractedText, aiJSON, res.Metrics.TotalMs)
	return err
}

// GetByJobID returns the persisted record for a job, or sql.ErrNoRows.
func (s *Store) GetByJobID(jobID string) (*ProcessedDocument, error) {
	row := s.db.QueryRow(`
		SELECT id, job_id, file_name, original_format, success, message, page_count,
		       width, height, image_path, thumbnail_path, extracted_text, ai_analysis,
		       total_ms, created_at
		FROM processed_documents WHERE job_id = ?`, jobID)
	return scanDocument(row)
}

// ListRecent returns the most recently processed documents, newest first.
func (s *Store) ListRecent(limit int) ([]*ProcessedDocument, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, job_id, file_name, original_format, success, message, page_count,
		       width, height, image_path, thumbnail_path, extracted_text, ai_analysis,
		       total_ms, created_at
		FROM processed_documents ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*ProcessedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteOlderThan prunes audit rows past the retention window and returns
// how many were removed.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM processed_documents WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*ProcessedDocument, error) {
	var doc ProcessedDocument
	err := row.Scan(&doc.ID, &doc.JobID, &doc.FileName, &doc.OriginalFormat,
		&doc.Success, &doc.Message, &doc.PageCount, &doc.Width, &doc.Height,
		&doc.ImagePath, &doc.ThumbnailPath, &doc.ExtractedText, &doc.AiAnalysisJSON,
		&doc.TotalMs, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
