package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"partshub-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLInventoryRepository implements InventoryRepository using MySQL,
// for shops whose existing infrastructure already runs MySQL.
type MySQLInventoryRepository struct {
	db *sql.DB
}

// NewMySQLInventoryRepository creates a new MySQL inventory repository.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLInventoryRepository(dsn string) (*MySQLInventoryRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLInventoryTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLInventoryRepository] Initialized")
	return &MySQLInventoryRepository{db: db}, nil
}

func createMySQLInventoryTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS inventory_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		natural_key VARCHAR(191) NOT NULL UNIQUE,
		keystone_vcpn VARCHAR(191) NOT NULL DEFAULT '',
		sku VARCHAR(191) NOT NULL DEFAULT '',
		name VARCHAR(255) NOT NULL DEFAULT '',
		description TEXT,
		brand VARCHAR(191) NOT NULL DEFAULT '',
		supplier VARCHAR(191) NOT NULL DEFAULT '',
		category VARCHAR(191) NOT NULL DEFAULT '',
		subcategory VARCHAR(191) NOT NULL DEFAULT '',
		cost DOUBLE NOT NULL DEFAULT 0,
		list_price DOUBLE NOT NULL DEFAULT 0,
		quantity INT NOT NULL DEFAULT 0,
		weight DOUBLE NOT NULL DEFAULT 0,
		length DOUBLE NOT NULL DEFAULT 0,
		width DOUBLE NOT NULL DEFAULT 0,
		height DOUBLE NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_inventory_vcpn (keystone_vcpn),
		INDEX idx_inventory_sku (sku)
	)`
	_, err := db.Exec(query)
	return err
}

// UpsertItem inserts or updates an item by natural key using
// ON DUPLICATE KEY UPDATE. MySQL reports 1 affected row for an insert and
// 2 for an update, which distinguishes created from updated.
func (r *MySQLInventoryRepository) UpsertItem(ctx context.Context, item *model.InventoryItem) (bool, error) {
	key := item.NaturalKey()
	if key == "" {
		return false, fmt.Errorf("item has no natural key")
	}

	query := `
		INSERT INTO inventory_items (
			natural_key, keystone_vcpn, sku, name, description, brand, supplier,
			category, subcategory, cost, list_price, quantity,
			weight, length, width, height, status
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			keystone_vcpn = VALUES(keystone_vcpn),
			sku = VALUES(sku),
			name = VALUES(name),
			description = VALUES(description),
			brand = VALUES(brand),
			supplier = VALUES(supplier),
			category = VALUES(category),
			subcategory = VALUES(subcategory),
			cost = VALUES(cost),
			list_price = VALUES(list_price),
			quantity = VALUES(quantity),
			weight = VALUES(weight),
			length = VALUES(length),
			width = VALUES(width),
			height = VALUES(height),
			status = VALUES(status)`

	result, err := r.db.ExecContext(ctx, query,
		key, item.KeystoneVCPN, item.SKU, item.Name, item.Description, item.Brand,
		item.Supplier, item.Category, item.Subcategory, item.Cost, item.ListPrice,
		item.Quantity, item.Weight, item.Length, item.Width, item.Height, item.Status)
	if err != nil {
		return false, fmt.Errorf("failed to upsert item %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

const mysqlItemColumns = `id, keystone_vcpn, sku, name, COALESCE(description, ''), brand,
	supplier, category, subcategory, cost, list_price, quantity, weight, length, width,
	height, status, created_at, updated_at`

func scanMySQLItem(row *sql.Row) (*model.InventoryItem, error) {
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
func (r *MySQLInventoryRepository) GetByVCPN(ctx context.Context, vcpn string) (*model.InventoryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mysqlItemColumns+` FROM inventory_items WHERE keystone_vcpn = ?`, vcpn)
	item, err := scanMySQLItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get item by vcpn: %w", err)
	}
	return item, nil
}

// GetBySKUOrVCPN retrieves an item matching either the SKU or VCPN column.
func (r *MySQLInventoryRepository) GetBySKUOrVCPN(ctx context.Context, key string) (*model.InventoryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mysqlItemColumns+` FROM inventory_items WHERE sku = ? OR keystone_vcpn = ?`, key, key)
	item, err := scanMySQLItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get item by sku or vcpn: %w", err)
	}
	return item, nil
}

// List returns a page of items plus the total row count.
func (r *MySQLInventoryRepository) List(ctx context.Context, limit, offset int) ([]model.InventoryItem, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mysqlItemColumns+` FROM inventory_items ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
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
func (r *MySQLInventoryRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE natural_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", key, err)
	}
	return nil
}

// GetStats returns statistics about the inventory cache.
func (r *MySQLInventoryRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory_items").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_items"] = count

	var lastUpdate sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM inventory_items").Scan(&lastUpdate); err == nil && lastUpdate.Valid {
		stats["last_update"] = lastUpdate.Time
	}

	dbStats := r.db.Stats()
	stats["connections"] = map[string]interface{}{
		"open":   dbStats.OpenConnections,
		"in_use": dbStats.InUse,
		"idle":   dbStats.Idle,
	}

	return stats, nil
}

// DB exposes the underlying pool so the ledger repository can share it.
func (r *MySQLInventoryRepository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection pool.
func (r *MySQLInventoryRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLInventoryRepository implements InventoryRepository
var _ InventoryRepository = (*MySQLInventoryRepository)(nil)
