package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"partshub-api/internal/model"
	"partshub-api/internal/repository"
)

func importCSV(rows int) string {
	var b strings.Builder
	b.WriteString("VCPN,SKU,Name,Cost,JobberPrice,TotalQty\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "VCPN%04d,SKU%04d,Part %d,10.50,24.99,%d\n", i, i, i, i)
	}
	return b.String()
}

func runImport(t *testing.T, repo repository.InventoryRepository, ledger repository.LedgerRepository, chunkSize int, csv string) *model.ImportBatch {
	t.Helper()
	im := NewImporter(repo, ledger, chunkSize, 0)
	batch, err := im.Import(context.Background(), "upload.csv", int64(len(csv)), strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	return batch
}

func TestImportCompletes(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	batch := runImport(t, repo, ledger, 1000, importCSV(25))

	if batch.Status != model.ImportStatusCompleted {
		t.Errorf("Status = %q, want completed", batch.Status)
	}
	if batch.TotalRecords != 25 || batch.ProcessedRecords != 25 {
		t.Errorf("records = %d/%d, want 25/25", batch.ProcessedRecords, batch.TotalRecords)
	}
	if batch.InsertedRecords != 25 {
		t.Errorf("InsertedRecords = %d, want 25", batch.InsertedRecords)
	}

	_, total, err := repo.List(context.Background(), 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 25 {
		t.Errorf("stored items = %d, want 25", total)
	}

	// The final state is also readable from the ledger.
	stored, err := ledger.GetImportBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.Status != model.ImportStatusCompleted {
		t.Errorf("ledger batch = %+v, want completed", stored)
	}
}

func TestImportUpdatesLedgerPerChunk(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	runImport(t, repo, ledger, 1000, importCSV(2500))

	// Three chunk updates plus the finalize write.
	if len(ledger.BatchUpdates) != 4 {
		t.Fatalf("ledger updates = %d, want 4", len(ledger.BatchUpdates))
	}
	wantProcessed := []int{1000, 2000, 2500, 2500}
	for i, upd := range ledger.BatchUpdates {
		if upd.ProcessedRecords != wantProcessed[i] {
			t.Errorf("update %d: ProcessedRecords = %d, want %d", i, upd.ProcessedRecords, wantProcessed[i])
		}
	}
	for _, upd := range ledger.BatchUpdates[:3] {
		if upd.Status != model.ImportStatusProcessing {
			t.Errorf("mid-run status = %q, want processing", upd.Status)
		}
	}
	if final := ledger.BatchUpdates[3]; final.Status != model.ImportStatusCompleted {
		t.Errorf("final status = %q, want completed", final.Status)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	csv := importCSV(30)
	runImport(t, repo, ledger, 1000, csv)
	second := runImport(t, repo, ledger, 1000, csv)

	if second.InsertedRecords != 0 {
		t.Errorf("second import InsertedRecords = %d, want 0", second.InsertedRecords)
	}
	if second.UpdatedRecords != 30 {
		t.Errorf("second import UpdatedRecords = %d, want 30", second.UpdatedRecords)
	}
	_, total, _ := repo.List(context.Background(), 1000, 0)
	if total != 30 {
		t.Errorf("stored items = %d, want 30 (no duplicates)", total)
	}
}

func TestImportMatchesExistingItemBySKU(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	// An item synced from the catalog, keyed by VCPN.
	seed := &model.InventoryItem{KeystoneVCPN: "VCPN9999", SKU: "SKU9999", Name: "Synced part", Quantity: 1}
	if _, err := repo.UpsertItem(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	// A supplier CSV row carrying only the SKU must update that item, not
	// insert a duplicate.
	csv := "SKU,Name,TotalQty\nSKU9999,Restocked part,42\n"
	batch := runImport(t, repo, ledger, 1000, csv)

	if batch.UpdatedRecords != 1 || batch.InsertedRecords != 0 {
		t.Errorf("inserted/updated = %d/%d, want 0/1", batch.InsertedRecords, batch.UpdatedRecords)
	}
	_, total, _ := repo.List(context.Background(), 1000, 0)
	if total != 1 {
		t.Fatalf("stored items = %d, want 1", total)
	}
	item, err := repo.GetByVCPN(context.Background(), "VCPN9999")
	if err != nil {
		t.Fatal(err)
	}
	if item == nil {
		t.Fatal("item should keep its VCPN identity")
	}
	if item.Quantity != 42 {
		t.Errorf("Quantity = %d, want 42", item.Quantity)
	}
}

func TestImportCountsRowsWithoutKey(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	csv := "VCPN,SKU,Name\nVCPN0001,SKU0001,Good part\n,,Keyless part\n"
	batch := runImport(t, repo, ledger, 1000, csv)

	if batch.Status != model.ImportStatusCompletedWithErrors {
		t.Errorf("Status = %q, want completed_with_errors", batch.Status)
	}
	if batch.ProcessedRecords != 2 {
		t.Errorf("ProcessedRecords = %d, want 2", batch.ProcessedRecords)
	}
	if batch.ErrorRecords != 1 {
		t.Errorf("ErrorRecords = %d, want 1", batch.ErrorRecords)
	}
	if batch.InsertedRecords != 1 {
		t.Errorf("InsertedRecords = %d, want 1", batch.InsertedRecords)
	}
}

func TestImportToleratesMalformedNumbers(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	csv := "VCPN,Name,Cost,TotalQty\nVCPN0001,Odd part,abc,many\n"
	batch := runImport(t, repo, ledger, 1000, csv)

	if batch.Status != model.ImportStatusCompleted {
		t.Errorf("Status = %q, want completed (bad numbers default to 0)", batch.Status)
	}
	item, err := repo.GetByVCPN(context.Background(), "VCPN0001")
	if err != nil {
		t.Fatal(err)
	}
	if item == nil {
		t.Fatal("row with malformed numbers should still be imported")
	}
	if item.Cost != 0 || item.Quantity != 0 {
		t.Errorf("cost/quantity = %v/%d, want 0/0", item.Cost, item.Quantity)
	}
}

func TestImportUnparseableFileFailsBatch(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	im := NewImporter(repo, ledger, 1000, 0)
	batch, err := im.Import(context.Background(), "empty.csv", 0, strings.NewReader(""))
	if err != nil {
		t.Fatalf("parse failures finalize the batch, got error %v", err)
	}
	if batch.Status != model.ImportStatusFailed {
		t.Errorf("Status = %q, want failed", batch.Status)
	}
	if batch.Notes == "" {
		t.Error("failed batch should note the reason")
	}
}

func TestImportCancelledMidRun(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	ledger := repository.NewMemoryLedgerRepository()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	im := NewImporter(repo, ledger, 10, 0)
	batch, err := im.Import(ctx, "upload.csv", 0, strings.NewReader(importCSV(100)))
	if err != nil {
		t.Fatal(err)
	}
	if batch.Status != model.ImportStatusFailed {
		t.Errorf("Status = %q, want failed", batch.Status)
	}
	if batch.ProcessedRecords != 0 {
		t.Errorf("ProcessedRecords = %d, want 0 (cancelled before first chunk)", batch.ProcessedRecords)
	}
}
