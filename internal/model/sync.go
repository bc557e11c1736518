package model

import "time"

// Sync types.
const (
	SyncTypeFull        = "full"
	SyncTypeIncremental = "incremental"
)

// SyncResult is the immutable record of one sync run. It is created when
// the run finishes and persisted to the sync log table; it is never
// mutated afterwards.
type SyncResult struct {
	ID             int64     `json:"id"`
	SyncType       string    `json:"sync_type"`
	Success        bool      `json:"success"`
	ItemsProcessed int       `json:"items_processed"`
	ItemsUpdated   int       `json:"items_updated"`
	ItemsAdded     int       `json:"items_added"`
	ItemsSkipped   int       `json:"items_skipped"`
	Errors         []string  `json:"errors,omitempty"`
	Message        string    `json:"message,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// SyncStatus is the mutable, orchestrator-owned run state. Callers get
// copies; only the orchestrator writes it.
type SyncStatus struct {
	IsRunning        bool        `json:"is_running"`
	SyncType         string      `json:"sync_type,omitempty"`
	Progress         int         `json:"progress"`
	CurrentOperation string      `json:"current_operation,omitempty"`
	LastResult       *SyncResult `json:"last_result,omitempty"`
	LastSyncAt       *time.Time  `json:"last_sync_at,omitempty"`
	NextScheduledAt  *time.Time  `json:"next_scheduled_at,omitempty"`
}

// Pending update operations.
const (
	PendingOpCreate = "create"
	PendingOpUpdate = "update"
	PendingOpDelete = "delete"
)

// PendingUpdate is a queued single-part refresh request, drained at the
// start of each incremental sync. Removed on success or once RetryCount
// exceeds the configured maximum.
type PendingUpdate struct {
	ID         int64     `json:"id"`
	VCPN       string    `json:"vcpn"`
	Operation  string    `json:"operation"`
	Priority   int       `json:"priority"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}
