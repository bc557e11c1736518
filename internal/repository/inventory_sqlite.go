package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"partshub-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteInventoryRepository implements InventoryRepository using SQLite.
// Default backend for development and single-shop deployments.
type SQLiteInventoryRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteInventoryRepository creates a new SQLite inventory repository.
// dbPath is the path to the SQLite database file (e.g., "./data/inventory.db")
func NewSQLiteInventoryRepository(dbPath string) (*SQLiteInventoryRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteInventoryTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteInventoryRepository] Initialized with database: %s", dbPath)
	return &SQLiteInventoryRepository{db: db}, nil
}

func createSQLiteInventoryTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS inventory_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		natural_key TEXT NOT NULL UNIQUE,
		keystone_vcpn TEXT NOT NULL DEFAULT '',
		sku TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		supplier TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		cost REAL NOT NULL DEFAULT 0,
		list_price REAL NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 0,
		weight REAL NOT NULL DEFAULT 0,
		length REAL NOT NULL DEFAULT 0,
		width REAL NOT NULL DEFAULT 0,
		height REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_inventory_vcpn ON inventory_items(keystone_vcpn);
	CREATE INDEX IF NOT EXISTS idx_inventory_sku ON inventory_items(sku);
	`
	_, err := db.Exec(query)
	return err
}

// UpsertItem inserts or updates an item by natural key.
func (r *SQLiteInventoryRepository) UpsertItem(ctx context.Context, item *model.InventoryItem) (bool, error) {
	key := item.NaturalKey()
	if key == "" {
		return false, fmt.Errorf("item has no natural key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var existingID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM inventory_items WHERE natural_key = ?`, key).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to look up item %s: %w", key, err)
	}
	existed := err == nil

	query := `
		INSERT INTO inventory_items (
			natural_key, keystone_vcpn, sku, name, description, brand, supplier,
			category, subcategory, cost, list_price, quantity,
			weight, length, width, height, status, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,datetime('now'))
		ON CONFLICT(natural_key) DO UPDATE SET
			keystone_vcpn = excluded.keystone_vcpn,
			sku = excluded.sku,
			name = excluded.name,
			description = excluded.description,
			brand = excluded.brand,
			supplier = excluded.supplier,
			category = excluded.category,
			subcategory = excluded.subcategory,
			cost = excluded.cost,
			list_price = excluded.list_price,
			quantity = excluded.quantity,
			weight = excluded.weight,
			length = excluded.length,
			width = excluded.width,
			height = excluded.height,
			status = excluded.status,
			updated_at = datetime('now')`

	_, err = r.db.ExecContext(ctx, query,
		key, item.KeystoneVCPN, item.SKU, item.Name, item.Description, item.Brand,
		item.Supplier, item.Category, item.Subcategory, item.Cost, item.ListPrice,
		item.Quantity, item.Weight, item.Length, item.Width, item.Height, item.Status)
	if err != nil {
		return false, fmt.Errorf("failed to upsert item %s: %w", key, err)
	}
	return !existed, nil
}

const sqliteItemColumns = `id, keystone_vcpn, sku, name, description, brand, supplier,
	category, subcategory, cost, list_price, quantity, weight, length, width, height,
	status, created_at, updated_at`

func (r *SQLiteInventoryRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.InventoryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteItemColumns+` FROM inventory_items WHERE `+where, arg)

	var item model.InventoryItem
	err := row.Scan(&item.ID, &item.KeystoneVCPN, &item.SKU, &item.Name, &item.Description,
		&item.Brand, &item.Supplier, &item.Category, &item.Subcategory, &item.Cost,
		&item.ListPrice, &item.Quantity, &item.Weight, &item.Length, &item.Width,
		&item.Height, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByVCPN retrieves an item by Keystone VCPN.
func (r *SQLiteInventoryRepository) GetByVCPN(ctx context.Context, vcpn string) (*model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, err := r.getOne(ctx, `keystone_vcpn = ?`, vcpn)
	if err != nil {
		return nil, fmt.Errorf("failed to get item by vcpn: %w", err)
	}
	return item, nil
}

// GetBySKUOrVCPN retrieves an item matching either the SKU or VCPN column.
func (r *SQLiteInventoryRepository) GetBySKUOrVCPN(ctx context.Context, key string) (*model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, err := r.getOne(ctx, `sku = ?1 OR keystone_vcpn = ?1`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get item by sku or vcpn: %w", err)
	}
	return item, nil
}

// List returns a page of items plus the total row count.
func (r *SQLiteInventoryRepository) List(ctx context.Context, limit, offset int) ([]model.InventoryItem, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteItemColumns+` FROM inventory_items ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []model.InventoryItem{}
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.ID, &item.KeystoneVCPN, &item.SKU, &item.Name,
			&item.Description, &item.Brand, &item.Supplier, &item.Category, &item.Subcategory,
			&item.Cost, &item.ListPrice, &item.Quantity, &item.Weight, &item.Length,
			&item.Width, &item.Height, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// Delete removes an item by natural key.
func (r *SQLiteInventoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE natural_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", key, err)
	}
	return nil
}

// GetStats returns statistics about the inventory cache.
func (r *SQLiteInventoryRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory_items").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_items"] = count

	var active int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inventory_items WHERE status = 'active'").Scan(&active); err == nil {
		stats["active_items"] = active
	}

	var lastUpdate sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM inventory_items").Scan(&lastUpdate); err == nil && lastUpdate.Valid {
		stats["last_update"] = lastUpdate.Time
	}

	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// DB exposes the underlying connection so the ledger repository can
// share it.
func (r *SQLiteInventoryRepository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection.
func (r *SQLiteInventoryRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteInventoryRepository implements InventoryRepository
var _ InventoryRepository = (*SQLiteInventoryRepository)(nil)
