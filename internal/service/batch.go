package service

import (
	"context"
	"fmt"
	"time"

	"partshub-api/internal/model"
	"partshub-api/internal/repository"
)

// Default batch sizing for catalog reconciliation.
const (
	DefaultBatchSize  = 100
	DefaultBatchDelay = 100 * time.Millisecond
)

// BatchResult accumulates counters across one ProcessAll call.
type BatchResult struct {
	Processed int
	Updated   int
	Added     int
	Errors    []string
}

// BatchProcessor splits item lists into fixed-size batches and upserts
// them sequentially into the cache store. A fixed delay between batches
// keeps a large sync from monopolizing the backing store; it is a
// cooperative throttle, not a token bucket.
type BatchProcessor struct {
	repo      repository.InventoryRepository
	batchSize int
	delay     time.Duration
}

// NewBatchProcessor creates a batch processor. Zero batchSize and a
// negative delay fall back to the defaults; an explicit zero delay is
// honored so tests run without real sleeps.
func NewBatchProcessor(repo repository.InventoryRepository, batchSize int, delay time.Duration) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if delay < 0 {
		delay = DefaultBatchDelay
	}
	return &BatchProcessor{repo: repo, batchSize: batchSize, delay: delay}
}

// ProcessAll upserts every item, batch by batch, in input order. Each
// item's failure is recorded against its natural key and never aborts
// the batch. onProgress, when non-nil, is invoked after every batch with
// the number of items attempted so far and the total.
//
// Cancelling ctx stops the run after the current batch; items already
// written stay written.
func (p *BatchProcessor) ProcessAll(ctx context.Context, items []model.InventoryItem, onProgress func(done, total int)) BatchResult {
	var result BatchResult
	total := len(items)

	for start := 0; start < total; start += p.batchSize {
		if ctx.Err() != nil {
			return result
		}

		end := start + p.batchSize
		if end > total {
			end = total
		}
		p.processBatch(ctx, items[start:end], &result)

		if onProgress != nil {
			onProgress(end, total)
		}

		if end < total && p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return result
			}
		}
	}
	return result
}

// processBatch upserts one batch sequentially.
func (p *BatchProcessor) processBatch(ctx context.Context, batch []model.InventoryItem, result *BatchResult) {
	for i := range batch {
		item := &batch[i]
		result.Processed++

		created, err := p.repo.UpsertItem(ctx, item)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %v", item.NaturalKey(), err))
			continue
		}
		if created {
			result.Added++
		} else {
			result.Updated++
		}
	}
}

// BatchCount returns how many batches ProcessAll will produce for n items.
func (p *BatchProcessor) BatchCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + p.batchSize - 1) / p.batchSize
}
