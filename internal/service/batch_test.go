package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"partshub-api/internal/model"
	"partshub-api/internal/repository"
)

// failingRepo wraps the in-memory repository and fails upserts for
// selected natural keys.
type failingRepo struct {
	*repository.MemoryInventoryRepository
	failKeys map[string]bool
}

func (r *failingRepo) UpsertItem(ctx context.Context, item *model.InventoryItem) (bool, error) {
	if r.failKeys[item.NaturalKey()] {
		return false, fmt.Errorf("simulated upsert failure")
	}
	return r.MemoryInventoryRepository.UpsertItem(ctx, item)
}

func makeItems(n int) []model.InventoryItem {
	items := make([]model.InventoryItem, n)
	for i := range items {
		items[i] = model.InventoryItem{
			KeystoneVCPN: fmt.Sprintf("VCPN%04d", i),
			SKU:          fmt.Sprintf("SKU%04d", i),
			Name:         fmt.Sprintf("Part %d", i),
			Quantity:     i,
		}
	}
	return items
}

func TestBatchCount(t *testing.T) {
	p := NewBatchProcessor(repository.NewMemoryInventoryRepository(), 100, 0)

	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{100, 1},
		{101, 2},
		{250, 3},
		{1000, 10},
	}
	for _, tt := range tests {
		if got := p.BatchCount(tt.n); got != tt.want {
			t.Errorf("BatchCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestProcessAllCountsEveryItem(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	p := NewBatchProcessor(repo, 100, 0)

	items := makeItems(250)
	result := p.ProcessAll(context.Background(), items, nil)

	if result.Processed != 250 {
		t.Errorf("Processed = %d, want 250", result.Processed)
	}
	if result.Added != 250 {
		t.Errorf("Added = %d, want 250", result.Added)
	}
	if result.Updated != 0 {
		t.Errorf("Updated = %d, want 0", result.Updated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
}

func TestProcessAllDistinguishesAddsFromUpdates(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	p := NewBatchProcessor(repo, 50, 0)

	items := makeItems(120)
	p.ProcessAll(context.Background(), items, nil)

	// Re-processing the same list must update, not add.
	result := p.ProcessAll(context.Background(), items, nil)
	if result.Added != 0 {
		t.Errorf("second run Added = %d, want 0", result.Added)
	}
	if result.Updated != 120 {
		t.Errorf("second run Updated = %d, want 120", result.Updated)
	}
}

func TestProcessAllIsolatesItemFailures(t *testing.T) {
	repo := &failingRepo{
		MemoryInventoryRepository: repository.NewMemoryInventoryRepository(),
		failKeys:                  map[string]bool{"VCPN0003": true, "VCPN0007": true},
	}
	p := NewBatchProcessor(repo, 4, 0)

	result := p.ProcessAll(context.Background(), makeItems(10), nil)

	if result.Processed != 10 {
		t.Errorf("Processed = %d, want 10 (failures must not abort the batch)", result.Processed)
	}
	if result.Added != 8 {
		t.Errorf("Added = %d, want 8", result.Added)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 entries", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "VCPN0003") {
		t.Errorf("error should name the failed item, got %q", result.Errors[0])
	}
}

func TestProcessAllReportsProgressPerBatch(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	p := NewBatchProcessor(repo, 100, 0)

	var progress []int
	p.ProcessAll(context.Background(), makeItems(250), func(done, total int) {
		if total != 250 {
			t.Errorf("total = %d, want 250", total)
		}
		progress = append(progress, done)
	})

	want := []int{100, 200, 250}
	if len(progress) != len(want) {
		t.Fatalf("progress calls = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %d, want %d", i, progress[i], want[i])
		}
	}
}

func TestProcessAllStopsOnCancel(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	p := NewBatchProcessor(repo, 10, 0)

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	result := p.ProcessAll(ctx, makeItems(100), func(done, total int) {
		calls++
		if done >= 30 {
			cancel()
		}
	})

	if result.Processed >= 100 {
		t.Errorf("Processed = %d, want fewer than 100 after cancel", result.Processed)
	}
	// Items written before the cancel stay written.
	_, total, err := repo.List(context.Background(), 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != int64(result.Processed) {
		t.Errorf("stored items = %d, want %d (no rollback)", total, result.Processed)
	}
}

func TestProcessAllEmptyInput(t *testing.T) {
	p := NewBatchProcessor(repository.NewMemoryInventoryRepository(), 100, 0)

	result := p.ProcessAll(context.Background(), nil, func(done, total int) {
		t.Error("onProgress should not fire for empty input")
	})
	if result.Processed != 0 {
		t.Errorf("Processed = %d, want 0", result.Processed)
	}
}
