package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one pipeline execution over an input folder.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	Folder        string     `json:"folder"`
	Lang          string     `json:"lang"`
	State         string     `json:"state"`
	Percent       int        `json:"percent"`
	Message       string     `json:"message"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	WorkbookPath  string     `json:"workbook_path,omitempty"`
	CSVPath       string     `json:"csv_path,omitempty"`
	Error         string     `json:"error,omitempty"`
	WorkbookError string     `json:"workbook_error,omitempty"`
}
