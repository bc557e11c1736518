package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"partshub-api/internal/model"
	"partshub-api/internal/parsers"
	"partshub-api/internal/repository"
	"partshub-api/pkg/uid"
)

// Default chunk sizing for CSV bulk import.
const (
	DefaultChunkSize  = 1000
	DefaultChunkDelay = 50 * time.Millisecond
)

// Importer runs the CSV bulk-import pipeline: parse, chunk, upsert, and
// record progress into an import-batch ledger row after every chunk.
type Importer struct {
	repo       repository.InventoryRepository
	ledger     repository.LedgerRepository
	chunkSize  int
	chunkDelay time.Duration
}

// NewImporter creates a CSV importer. Zero chunkSize and a negative
// delay fall back to the defaults.
func NewImporter(repo repository.InventoryRepository, ledger repository.LedgerRepository, chunkSize int, chunkDelay time.Duration) *Importer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkDelay < 0 {
		chunkDelay = DefaultChunkDelay
	}
	return &Importer{repo: repo, ledger: ledger, chunkSize: chunkSize, chunkDelay: chunkDelay}
}

// Import processes one uploaded CSV file. Row-level failures are counted
// and never abort the run; pipeline-level failures finalize the ledger
// row as failed. The returned batch reflects the final ledger state —
// completed, completed_with_errors, or failed — and Import itself only
// errors when the ledger row cannot even be created.
func (im *Importer) Import(ctx context.Context, fileName string, fileSize int64, file io.Reader) (*model.ImportBatch, error) {
	batch := &model.ImportBatch{
		ID:       uid.New(),
		FileName: fileName,
		FileSize: fileSize,
		Status:   model.ImportStatusPending,
	}
	if err := im.ledger.CreateImportBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	records, err := parsers.ParseInventoryCSV(file)
	if err != nil {
		batch.Status = model.ImportStatusFailed
		batch.Notes = fmt.Sprintf("parse failed: %v", err)
		im.finalize(batch)
		return batch, nil
	}

	batch.TotalRecords = len(records)
	batch.Status = model.ImportStatusProcessing

	for start := 0; start < len(records); start += im.chunkSize {
		if ctx.Err() != nil {
			batch.Status = model.ImportStatusFailed
			batch.Notes = "import cancelled"
			im.finalize(batch)
			return batch, nil
		}

		end := start + im.chunkSize
		if end > len(records) {
			end = len(records)
		}
		im.processChunk(ctx, records[start:end], batch)

		batch.Status = model.ImportStatusProcessing
		if err := im.ledger.UpdateImportBatch(ctx, batch); err != nil {
			log.Printf("[Importer] Failed to update batch %s: %v", batch.ID, err)
		}

		if end < len(records) && im.chunkDelay > 0 {
			select {
			case <-time.After(im.chunkDelay):
			case <-ctx.Done():
			}
		}
	}

	if batch.ErrorRecords > 0 {
		batch.Status = model.ImportStatusCompletedWithErrors
		batch.Notes = fmt.Sprintf("%d of %d records failed", batch.ErrorRecords, batch.TotalRecords)
	} else {
		batch.Status = model.ImportStatusCompleted
	}
	im.finalize(batch)
	return batch, nil
}

// processChunk upserts one chunk of records, matching existing rows by
// SKU or VCPN so CSV rows without a VCPN still update the right item.
func (im *Importer) processChunk(ctx context.Context, records []model.InventoryItem, batch *model.ImportBatch) {
	for i := range records {
		rec := &records[i]
		batch.ProcessedRecords++

		key := rec.NaturalKey()
		if key == "" {
			batch.ErrorRecords++
			continue
		}

		existing, err := im.repo.GetBySKUOrVCPN(ctx, key)
		if err != nil {
			batch.ErrorRecords++
			continue
		}
		if existing != nil {
			// Preserve the stored identity so a SKU-only CSV row does
			// not insert a duplicate of a VCPN-keyed item.
			if rec.KeystoneVCPN == "" {
				rec.KeystoneVCPN = existing.KeystoneVCPN
			}
			if rec.SKU == "" {
				rec.SKU = existing.SKU
			}
		}

		created, err := im.repo.UpsertItem(ctx, rec)
		if err != nil {
			batch.ErrorRecords++
			continue
		}
		if created {
			batch.InsertedRecords++
		} else {
			batch.UpdatedRecords++
		}
	}
}

// finalize writes the terminal ledger state. Uses a background context so
// a cancelled import still records its outcome.
func (im *Importer) finalize(batch *model.ImportBatch) {
	if err := im.ledger.UpdateImportBatch(context.Background(), batch); err != nil {
		log.Printf("[Importer] Failed to finalize batch %s: %v", batch.ID, err)
	}
	log.Printf("[Importer] Batch %s finished: status=%s processed=%d inserted=%d updated=%d errors=%d",
		batch.ID, batch.Status, batch.ProcessedRecords, batch.InsertedRecords,
		batch.UpdatedRecords, batch.ErrorRecords)
}
