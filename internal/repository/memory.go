package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"partshub-api/internal/model"
)

// MemoryInventoryRepository is an in-memory InventoryRepository for tests
// and ephemeral development runs.
type MemoryInventoryRepository struct {
	mu     sync.RWMutex
	items  map[string]*model.InventoryItem // keyed by natural key
	nextID int64
}

// NewMemoryInventoryRepository creates an empty in-memory repository.
func NewMemoryInventoryRepository() *MemoryInventoryRepository {
	return &MemoryInventoryRepository{items: make(map[string]*model.InventoryItem), nextID: 1}
}

// UpsertItem inserts or updates an item by natural key.
func (r *MemoryInventoryRepository) UpsertItem(ctx context.Context, item *model.InventoryItem) (bool, error) {
	key := item.NaturalKey()
	if key == "" {
		return false, errNoNaturalKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cp := *item
	cp.UpdatedAt = now

	if existing, ok := r.items[key]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
		r.items[key] = &cp
		return false, nil
	}

	cp.ID = r.nextID
	r.nextID++
	cp.CreatedAt = now
	r.items[key] = &cp
	return true, nil
}

type repoError string

func (e repoError) Error() string { return string(e) }

const errNoNaturalKey = repoError("item has no natural key")

// GetByVCPN retrieves an item by Keystone VCPN.
func (r *MemoryInventoryRepository) GetByVCPN(ctx context.Context, vcpn string) (*model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.KeystoneVCPN == vcpn {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

// GetBySKUOrVCPN retrieves an item matching either SKU or VCPN.
func (r *MemoryInventoryRepository) GetBySKUOrVCPN(ctx context.Context, key string) (*model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.SKU == key || item.KeystoneVCPN == key {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

// List returns a page of items plus the total row count.
func (r *MemoryInventoryRepository) List(ctx context.Context, limit, offset int) ([]model.InventoryItem, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]model.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, *item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.InventoryItem{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// Delete removes an item by natural key.
func (r *MemoryInventoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, key)
	return nil
}

// GetStats returns statistics about the inventory cache.
func (r *MemoryInventoryRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]interface{}{
		"total_items": int64(len(r.items)),
	}, nil
}

// Close is a no-op.
func (r *MemoryInventoryRepository) Close() error {
	return nil
}

// MemoryLedgerRepository is an in-memory LedgerRepository for tests.
type MemoryLedgerRepository struct {
	mu         sync.Mutex
	syncLogs   []model.SyncResult
	pending    []model.PendingUpdate
	batches    map[string]*model.ImportBatch
	// BatchUpdates records every UpdateImportBatch call, letting tests
	// assert on per-chunk ledger progress.
	BatchUpdates []model.ImportBatch
	nextID       int64
}

// NewMemoryLedgerRepository creates an empty in-memory ledger.
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{batches: make(map[string]*model.ImportBatch), nextID: 1}
}

// InsertSyncResult persists a finished sync run.
func (r *MemoryLedgerRepository) InsertSyncResult(ctx context.Context, result *model.SyncResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *result
	cp.ID = r.nextID
	r.nextID++
	r.syncLogs = append(r.syncLogs, cp)
	return nil
}

// ListSyncResults returns the most recent sync runs, newest first.
func (r *MemoryLedgerRepository) ListSyncResults(ctx context.Context, limit int) ([]model.SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.SyncResult, len(r.syncLogs))
	copy(out, r.syncLogs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EnqueuePendingUpdate queues a single-part refresh request.
func (r *MemoryLedgerRepository) EnqueuePendingUpdate(ctx context.Context, upd *model.PendingUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *upd
	cp.ID = r.nextID
	r.nextID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.pending = append(r.pending, cp)
	return nil
}

// ListPendingUpdates returns queued updates, highest priority first.
func (r *MemoryLedgerRepository) ListPendingUpdates(ctx context.Context, limit int) ([]model.PendingUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.PendingUpdate, len(r.pending))
	copy(out, r.pending)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RemovePendingUpdate deletes a queued update by id.
func (r *MemoryLedgerRepository) RemovePendingUpdate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, upd := range r.pending {
		if upd.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

// BumpPendingRetry increments a queued update's retry counter.
func (r *MemoryLedgerRepository) BumpPendingRetry(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.pending {
		if r.pending[i].ID == id {
			r.pending[i].RetryCount++
			return nil
		}
	}
	return nil
}

// CreateImportBatch inserts a new import ledger row.
func (r *MemoryLedgerRepository) CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *batch
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.batches[cp.ID] = &cp
	return nil
}

// UpdateImportBatch writes running totals and status for a batch.
func (r *MemoryLedgerRepository) UpdateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *batch
	cp.UpdatedAt = time.Now()
	r.batches[cp.ID] = &cp
	r.BatchUpdates = append(r.BatchUpdates, cp)
	return nil
}

// GetImportBatch retrieves a ledger row by id.
func (r *MemoryLedgerRepository) GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *batch
	return &cp, nil
}

// Close is a no-op.
func (r *MemoryLedgerRepository) Close() error {
	return nil
}

// Ensure the in-memory repositories implement the interfaces
var (
	_ InventoryRepository = (*MemoryInventoryRepository)(nil)
	_ LedgerRepository    = (*MemoryLedgerRepository)(nil)
)
