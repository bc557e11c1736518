package model

import "time"

// Import batch statuses. A run that finishes with row-level errors is
// finalized as completed_with_errors so callers can tell partial success
// from a clean run.
const (
	ImportStatusPending             = "pending"
	ImportStatusProcessing          = "processing"
	ImportStatusCompleted           = "completed"
	ImportStatusCompletedWithErrors = "completed_with_errors"
	ImportStatusFailed              = "failed"
)

// ImportBatch is the ledger row for one CSV upload. Counters only ever
// grow within a run; the row is updated after every processed chunk.
type ImportBatch struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	FileSize         int64     `json:"file_size"`
	TotalRecords     int       `json:"total_records"`
	ProcessedRecords int       `json:"processed_records"`
	InsertedRecords  int       `json:"inserted_records"`
	UpdatedRecords   int       `json:"updated_records"`
	ErrorRecords     int       `json:"error_records"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
