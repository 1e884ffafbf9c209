package models

// ProgressUpdate is broadcast to connected clients while a job runs. For a
// given job the Progress value never decreases; it is pinned at 100 on
// completion and frozen at its last value on failure.
type ProgressUpdate struct {
	JobID        string  `json:"jobId"`
	Status       string  `json:"status"` // e.g. "processing", "completed", "failed"
	CurrentFile  string  `json:"current_file,omitempty"`
	TotalFiles   int     `json:"total_files,omitempty"`
	CurrentPage  int     `json:"current_page,omitempty"`
	TotalPages   int     `json:"total_pages,omitempty"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Done         bool    `json:"done"`
}
