package repository

import (
	"context"

	"partshub-api/internal/model"
)

// InventoryRepository defines access to the local inventory cache table.
type InventoryRepository interface {
	// UpsertItem inserts or updates an item by its natural key
	// (keystone_vcpn, falling back to sku). Reports whether a new row
	// was created.
	UpsertItem(ctx context.Context, item *model.InventoryItem) (created bool, err error)

	// GetByVCPN retrieves an item by Keystone VCPN. Nil when not found.
	GetByVCPN(ctx context.Context, vcpn string) (*model.InventoryItem, error)

	// GetBySKUOrVCPN retrieves an item matching the key against either
	// the SKU or the VCPN column (the CSV import lookup). Nil when not
	// found.
	GetBySKUOrVCPN(ctx context.Context, key string) (*model.InventoryItem, error)

	// List returns a page of items plus the total row count.
	List(ctx context.Context, limit, offset int) ([]model.InventoryItem, int64, error)

	// Delete removes an item by natural key. Deletion is an explicit
	// operation; the sync path never deletes.
	Delete(ctx context.Context, key string) error

	// GetStats returns statistics about the inventory cache.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// LedgerRepository defines access to the sync log, pending update queue,
// and import batch tables.
type LedgerRepository interface {
	// InsertSyncResult persists a finished sync run.
	InsertSyncResult(ctx context.Context, result *model.SyncResult) error

	// ListSyncResults returns the most recent sync runs, newest first.
	ListSyncResults(ctx context.Context, limit int) ([]model.SyncResult, error)

	// EnqueuePendingUpdate queues a single-part refresh request.
	EnqueuePendingUpdate(ctx context.Context, upd *model.PendingUpdate) error

	// ListPendingUpdates returns queued updates, highest priority first.
	ListPendingUpdates(ctx context.Context, limit int) ([]model.PendingUpdate, error)

	// RemovePendingUpdate deletes a queued update by id.
	RemovePendingUpdate(ctx context.Context, id int64) error

	// BumpPendingRetry increments a queued update's retry counter.
	BumpPendingRetry(ctx context.Context, id int64) error

	// CreateImportBatch inserts a new import ledger row.
	CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error

	// UpdateImportBatch writes running totals and status for a batch.
	UpdateImportBatch(ctx context.Context, batch *model.ImportBatch) error

	// GetImportBatch retrieves a ledger row by id. Nil when not found.
	GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error)

	// Close closes the repository connection.
	Close() error
}
