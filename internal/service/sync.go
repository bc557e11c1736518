package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"partshub-api/internal/keystone"
	"partshub-api/internal/model"
	"partshub-api/internal/repository"
)

// ErrSyncInProgress is returned when a sync is requested while another is
// still running. Overlapping syncs against the same cache table are
// rejected with a compare-and-set guard rather than left to race.
var ErrSyncInProgress = errors.New("a sync is already running")

// OrchestratorConfig holds sync orchestration settings.
type OrchestratorConfig struct {
	MaxItems            int           // full-sync bulk fetch cap
	IncrementalLimit    int           // incremental-sync bulk fetch cap
	MaxRetries          int           // pending update attempts before drop
	IncrementalInterval time.Duration
	FullInterval        time.Duration
}

// Orchestrator drives catalog synchronization: it owns the run state,
// decides full vs incremental work, and feeds fetched items through the
// batch processor into the cache store.
type Orchestrator struct {
	source    keystone.CatalogSource
	repo      repository.InventoryRepository
	ledger    repository.LedgerRepository
	processor *BatchProcessor
	cfg       OrchestratorConfig
	now       func() time.Time

	running atomic.Bool

	mu       sync.Mutex
	status   model.SyncStatus
	cancelFn context.CancelFunc
}

// NewOrchestrator creates a sync orchestrator. A nil clock uses time.Now.
func NewOrchestrator(
	source keystone.CatalogSource,
	repo repository.InventoryRepository,
	ledger repository.LedgerRepository,
	processor *BatchProcessor,
	cfg OrchestratorConfig,
	now func() time.Time,
) *Orchestrator {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 5000
	}
	if cfg.IncrementalLimit <= 0 {
		cfg.IncrementalLimit = 500
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		source:    source,
		repo:      repo,
		ledger:    ledger,
		processor: processor,
		cfg:       cfg,
		now:       now,
	}
}

// PerformFullSync fetches the entire remote catalog (up to the bulk cap)
// and reconciles it into the cache store. Returns ErrSyncInProgress if
// another sync holds the running flag; any other failure is reported
// through the returned SyncResult, never as an error.
func (o *Orchestrator) PerformFullSync(ctx context.Context) (*model.SyncResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer o.running.Store(false)

	return o.run(ctx, model.SyncTypeFull), nil
}

// PerformIncrementalSync drains the pending update queue, then fetches a
// smaller bounded batch from the catalog.
func (o *Orchestrator) PerformIncrementalSync(ctx context.Context) (*model.SyncResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer o.running.Store(false)

	return o.run(ctx, model.SyncTypeIncremental), nil
}

// run executes one sync. All failure paths funnel into the SyncResult;
// the status is always reset to idle with progress=100 on exit.
func (o *Orchestrator) run(ctx context.Context, syncType string) (result *model.SyncResult) {
	started := o.now()
	result = &model.SyncResult{
		SyncType:  syncType,
		StartedAt: started,
	}

	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.cancelFn = cancel
	o.status.IsRunning = true
	o.status.SyncType = syncType
	o.status.Progress = 0
	o.status.CurrentOperation = "Starting sync"
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("unexpected error: %v", r))
			result.Message = fmt.Sprintf("sync aborted: %v", r)
		}
		cancel()

		result.Duration = o.now().Sub(started)
		result.Success = len(result.Errors) == 0
		if result.Message == "" {
			if result.Success {
				result.Message = fmt.Sprintf("%s sync completed: %d processed, %d added, %d updated",
					syncType, result.ItemsProcessed, result.ItemsAdded, result.ItemsUpdated)
			} else {
				result.Message = fmt.Sprintf("%s sync finished with %d errors", syncType, len(result.Errors))
			}
		}

		lastSync := o.now()
		o.mu.Lock()
		o.cancelFn = nil
		o.status.IsRunning = false
		o.status.Progress = 100
		o.status.LastResult = result
		o.status.LastSyncAt = &lastSync
		if o.status.CurrentOperation != "Cancelled" {
			o.status.CurrentOperation = "Idle"
		}
		o.mu.Unlock()

		if err := o.ledger.InsertSyncResult(context.Background(), result); err != nil {
			log.Printf("[Orchestrator] Failed to persist sync result: %v", err)
		}
		log.Printf("[Orchestrator] %s", result.Message)
	}()

	limit := o.cfg.MaxItems
	if syncType == model.SyncTypeIncremental {
		o.drainPendingUpdates(runCtx, result)
		limit = o.cfg.IncrementalLimit
	}

	o.setOperation("Fetching catalog")
	items, err := o.source.FetchBulkInventory(runCtx, limit)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("catalog fetch: %v", err))
		return result
	}

	o.setOperation(fmt.Sprintf("Processing %d items", len(items)))
	br := o.processor.ProcessAll(runCtx, items, func(done, total int) {
		o.mu.Lock()
		if total > 0 {
			o.status.Progress = done * 100 / total
		}
		o.status.CurrentOperation = fmt.Sprintf("Processed %d/%d items", done, total)
		o.mu.Unlock()
	})

	result.ItemsProcessed += br.Processed
	result.ItemsAdded += br.Added
	result.ItemsUpdated += br.Updated
	result.ItemsSkipped += len(items) - br.Processed
	result.Errors = append(result.Errors, br.Errors...)

	if runCtx.Err() != nil {
		// Cancellation is best-effort: already-applied upserts stay.
		o.setOperation("Cancelled")
	}
	return result
}

// drainPendingUpdates applies queued single-part refreshes. Each entry is
// retried across incremental runs up to MaxRetries, then dropped with a
// logged failure.
func (o *Orchestrator) drainPendingUpdates(ctx context.Context, result *model.SyncResult) {
	o.setOperation("Draining pending updates")

	pending, err := o.ledger.ListPendingUpdates(ctx, 0)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("pending queue: %v", err))
		return
	}

	for _, upd := range pending {
		if ctx.Err() != nil {
			return
		}

		if err := o.applyPendingUpdate(ctx, upd); err != nil {
			if upd.RetryCount+1 >= o.cfg.MaxRetries {
				log.Printf("[Orchestrator] Dropping pending update %s after %d attempts: %v",
					upd.VCPN, upd.RetryCount+1, err)
				result.Errors = append(result.Errors,
					fmt.Sprintf("pending %s: dropped after %d attempts: %v", upd.VCPN, upd.RetryCount+1, err))
				if rmErr := o.ledger.RemovePendingUpdate(ctx, upd.ID); rmErr != nil {
					log.Printf("[Orchestrator] Failed to remove pending update %d: %v", upd.ID, rmErr)
				}
			} else {
				if bumpErr := o.ledger.BumpPendingRetry(ctx, upd.ID); bumpErr != nil {
					log.Printf("[Orchestrator] Failed to bump retry for %d: %v", upd.ID, bumpErr)
				}
			}
			continue
		}

		result.ItemsProcessed++
		if err := o.ledger.RemovePendingUpdate(ctx, upd.ID); err != nil {
			log.Printf("[Orchestrator] Failed to remove pending update %d: %v", upd.ID, err)
		}
	}
}

// applyPendingUpdate performs one queued operation against the cache.
func (o *Orchestrator) applyPendingUpdate(ctx context.Context, upd model.PendingUpdate) error {
	if upd.Operation == model.PendingOpDelete {
		return o.repo.Delete(ctx, upd.VCPN)
	}

	item, err := o.source.FetchSinglePart(ctx, upd.VCPN)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("part %s not found in catalog", upd.VCPN)
	}
	_, err = o.repo.UpsertItem(ctx, item)
	return err
}

// CancelSync signals the in-flight fetch and batch loop to stop. It does
// not roll back partially-applied upserts.
func (o *Orchestrator) CancelSync() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelFn != nil {
		o.cancelFn()
		o.status.CurrentOperation = "Cancelled"
	}
}

// RequestPartUpdate queues a single-part refresh for the next
// incremental sync.
func (o *Orchestrator) RequestPartUpdate(ctx context.Context, vcpn, operation string, priority int) error {
	if vcpn == "" {
		return fmt.Errorf("vcpn is required")
	}
	switch operation {
	case model.PendingOpCreate, model.PendingOpUpdate, model.PendingOpDelete:
	default:
		return fmt.Errorf("unknown operation %q", operation)
	}
	return o.ledger.EnqueuePendingUpdate(ctx, &model.PendingUpdate{
		VCPN:      vcpn,
		Operation: operation,
		Priority:  priority,
	})
}

// Status returns a copy of the current sync status.
func (o *Orchestrator) Status() model.SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.status
	if st.LastSyncAt != nil {
		next := st.LastSyncAt.Add(o.cfg.IncrementalInterval)
		st.NextScheduledAt = &next
	}
	return st
}

// ShouldRunScheduledSync reports whether a scheduled sync is due at the
// given instant, and which kind. It is a pure function of the last sync
// time and the configured intervals; the scheduler owns the timer.
func (o *Orchestrator) ShouldRunScheduledSync(at time.Time) (bool, string) {
	o.mu.Lock()
	lastSync := o.status.LastSyncAt
	o.mu.Unlock()

	if lastSync == nil {
		return true, model.SyncTypeFull
	}
	if o.cfg.FullInterval > 0 && !at.Before(lastSync.Add(o.cfg.FullInterval)) {
		return true, model.SyncTypeFull
	}
	if o.cfg.IncrementalInterval > 0 && !at.Before(lastSync.Add(o.cfg.IncrementalInterval)) {
		return true, model.SyncTypeIncremental
	}
	return false, ""
}

// setOperation updates the current operation label unless the run was
// already marked cancelled.
func (o *Orchestrator) setOperation(op string) {
	o.mu.Lock()
	if o.status.CurrentOperation != "Cancelled" {
		o.status.CurrentOperation = op
	}
	o.mu.Unlock()
}
