package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"partshub-api/internal/model"
)

// ledgerDialect captures the per-backend differences for the ledger
// tables: placeholder style and DDL.
type ledgerDialect struct {
	name    string
	ddl     string
	rebind  bool // rewrite ? placeholders to $1..$n (PostgreSQL)
}

// SQLLedgerRepository implements LedgerRepository on top of any of the
// three relational backends. It shares the connection pool with the
// inventory repository for the same backend.
type SQLLedgerRepository struct {
	db      *sql.DB
	dialect ledgerDialect
}

const ledgerDDLPostgres = `
CREATE TABLE IF NOT EXISTS sync_logs (
	id BIGSERIAL PRIMARY KEY,
	sync_type TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	items_processed INTEGER NOT NULL DEFAULT 0,
	items_updated INTEGER NOT NULL DEFAULT 0,
	items_added INTEGER NOT NULL DEFAULT 0,
	items_skipped INTEGER NOT NULL DEFAULT 0,
	errors TEXT NOT NULL DEFAULT '[]',
	message TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS pending_updates (
	id BIGSERIAL PRIMARY KEY,
	vcpn TEXT NOT NULL,
	operation TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	retry_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS import_batches (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	total_records INTEGER NOT NULL DEFAULT 0,
	processed_records INTEGER NOT NULL DEFAULT 0,
	inserted_records INTEGER NOT NULL DEFAULT 0,
	updated_records INTEGER NOT NULL DEFAULT 0,
	error_records INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const ledgerDDLSQLite = `
CREATE TABLE IF NOT EXISTS sync_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sync_type TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	items_processed INTEGER NOT NULL DEFAULT 0,
	items_updated INTEGER NOT NULL DEFAULT 0,
	items_added INTEGER NOT NULL DEFAULT 0,
	items_skipped INTEGER NOT NULL DEFAULT 0,
	errors TEXT NOT NULL DEFAULT '[]',
	message TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS pending_updates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vcpn TEXT NOT NULL,
	operation TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	retry_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS import_batches (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL DEFAULT '',
	file_size INTEGER NOT NULL DEFAULT 0,
	total_records INTEGER NOT NULL DEFAULT 0,
	processed_records INTEGER NOT NULL DEFAULT 0,
	inserted_records INTEGER NOT NULL DEFAULT 0,
	updated_records INTEGER NOT NULL DEFAULT 0,
	error_records INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

const ledgerDDLMySQL = `
CREATE TABLE IF NOT EXISTS sync_logs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	sync_type VARCHAR(32) NOT NULL,
	success BOOLEAN NOT NULL,
	items_processed INT NOT NULL DEFAULT 0,
	items_updated INT NOT NULL DEFAULT 0,
	items_added INT NOT NULL DEFAULT 0,
	items_skipped INT NOT NULL DEFAULT 0,
	errors TEXT,
	message TEXT,
	started_at TIMESTAMP NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
)`

const ledgerDDLMySQLPending = `
CREATE TABLE IF NOT EXISTS pending_updates (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	vcpn VARCHAR(191) NOT NULL,
	operation VARCHAR(32) NOT NULL,
	priority INT NOT NULL DEFAULT 0,
	retry_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const ledgerDDLMySQLBatches = `
CREATE TABLE IF NOT EXISTS import_batches (
	id VARCHAR(64) PRIMARY KEY,
	file_name VARCHAR(255) NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	total_records INT NOT NULL DEFAULT 0,
	processed_records INT NOT NULL DEFAULT 0,
	inserted_records INT NOT NULL DEFAULT 0,
	updated_records INT NOT NULL DEFAULT 0,
	error_records INT NOT NULL DEFAULT 0,
	status VARCHAR(32) NOT NULL DEFAULT 'pending',
	notes TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

// NewPostgresLedgerRepository creates the ledger tables on an existing
// PostgreSQL connection pool.
func NewPostgresLedgerRepository(db *sql.DB) (*SQLLedgerRepository, error) {
	return newSQLLedger(db, ledgerDialect{name: "postgres", ddl: ledgerDDLPostgres, rebind: true})
}

// NewSQLiteLedgerRepository creates the ledger tables on an existing
// SQLite connection.
func NewSQLiteLedgerRepository(db *sql.DB) (*SQLLedgerRepository, error) {
	return newSQLLedger(db, ledgerDialect{name: "sqlite", ddl: ledgerDDLSQLite})
}

// NewMySQLLedgerRepository creates the ledger tables on an existing MySQL
// connection pool. MySQL cannot run multiple statements per Exec by
// default, so the DDL is split.
func NewMySQLLedgerRepository(db *sql.DB) (*SQLLedgerRepository, error) {
	for _, ddl := range []string{ledgerDDLMySQL, ledgerDDLMySQLPending, ledgerDDLMySQLBatches} {
		if _, err := db.Exec(ddl); err != nil {
			return nil, fmt.Errorf("failed to create ledger tables: %w", err)
		}
	}
	log.Printf("[SQLLedgerRepository] Initialized (mysql)")
	return &SQLLedgerRepository{db: db, dialect: ledgerDialect{name: "mysql"}}, nil
}

func newSQLLedger(db *sql.DB, d ledgerDialect) (*SQLLedgerRepository, error) {
	if _, err := db.Exec(d.ddl); err != nil {
		return nil, fmt.Errorf("failed to create ledger tables: %w", err)
	}
	log.Printf("[SQLLedgerRepository] Initialized (%s)", d.name)
	return &SQLLedgerRepository{db: db, dialect: d}, nil
}

// q rewrites ? placeholders for the active dialect.
func (r *SQLLedgerRepository) q(query string) string {
	if !r.dialect.rebind {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// InsertSyncResult persists a finished sync run.
func (r *SQLLedgerRepository) InsertSyncResult(ctx context.Context, result *model.SyncResult) error {
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		errorsJSON = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, r.q(`
		INSERT INTO sync_logs (sync_type, success, items_processed, items_updated,
			items_added, items_skipped, errors, message, started_at, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?)`),
		result.SyncType, result.Success, result.ItemsProcessed, result.ItemsUpdated,
		result.ItemsAdded, result.ItemsSkipped, string(errorsJSON), result.Message,
		result.StartedAt, result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert sync result: %w", err)
	}
	return nil
}

// ListSyncResults returns the most recent sync runs, newest first.
func (r *SQLLedgerRepository) ListSyncResults(ctx context.Context, limit int) ([]model.SyncResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, sync_type, success, items_processed, items_updated, items_added,
			items_skipped, errors, message, started_at, duration_ms
		FROM sync_logs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync results: %w", err)
	}
	defer rows.Close()

	results := []model.SyncResult{}
	for rows.Next() {
		var res model.SyncResult
		var errorsJSON string
		var durationMS int64
		if err := rows.Scan(&res.ID, &res.SyncType, &res.Success, &res.ItemsProcessed,
			&res.ItemsUpdated, &res.ItemsAdded, &res.ItemsSkipped, &errorsJSON,
			&res.Message, &res.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan sync result: %w", err)
		}
		res.Duration = time.Duration(durationMS) * time.Millisecond
		_ = json.Unmarshal([]byte(errorsJSON), &res.Errors)
		results = append(results, res)
	}
	return results, rows.Err()
}

// EnqueuePendingUpdate queues a single-part refresh request.
func (r *SQLLedgerRepository) EnqueuePendingUpdate(ctx context.Context, upd *model.PendingUpdate) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO pending_updates (vcpn, operation, priority, retry_count)
		VALUES (?,?,?,?)`),
		upd.VCPN, upd.Operation, upd.Priority, upd.RetryCount)
	if err != nil {
		return fmt.Errorf("failed to enqueue pending update: %w", err)
	}
	return nil
}

// ListPendingUpdates returns queued updates, highest priority first, then
// oldest first. A non-positive limit returns the whole queue.
func (r *SQLLedgerRepository) ListPendingUpdates(ctx context.Context, limit int) ([]model.PendingUpdate, error) {
	query := `
		SELECT id, vcpn, operation, priority, retry_count, created_at
		FROM pending_updates ORDER BY priority DESC, created_at ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending updates: %w", err)
	}
	defer rows.Close()

	updates := []model.PendingUpdate{}
	for rows.Next() {
		var upd model.PendingUpdate
		if err := rows.Scan(&upd.ID, &upd.VCPN, &upd.Operation, &upd.Priority,
			&upd.RetryCount, &upd.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending update: %w", err)
		}
		updates = append(updates, upd)
	}
	return updates, rows.Err()
}

// RemovePendingUpdate deletes a queued update by id.
func (r *SQLLedgerRepository) RemovePendingUpdate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, r.q(`DELETE FROM pending_updates WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to remove pending update %d: %w", id, err)
	}
	return nil
}

// BumpPendingRetry increments a queued update's retry counter.
func (r *SQLLedgerRepository) BumpPendingRetry(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		r.q(`UPDATE pending_updates SET retry_count = retry_count + 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to bump retry for pending update %d: %w", id, err)
	}
	return nil
}

// CreateImportBatch inserts a new import ledger row.
func (r *SQLLedgerRepository) CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO import_batches (id, file_name, file_size, total_records,
			processed_records, inserted_records, updated_records, error_records,
			status, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?)`),
		batch.ID, batch.FileName, batch.FileSize, batch.TotalRecords,
		batch.ProcessedRecords, batch.InsertedRecords, batch.UpdatedRecords,
		batch.ErrorRecords, batch.Status, batch.Notes)
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// UpdateImportBatch writes running totals and status for a batch.
func (r *SQLLedgerRepository) UpdateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		UPDATE import_batches SET total_records = ?, processed_records = ?,
			inserted_records = ?, updated_records = ?, error_records = ?,
			status = ?, notes = ?
		WHERE id = ?`),
		batch.TotalRecords, batch.ProcessedRecords, batch.InsertedRecords,
		batch.UpdatedRecords, batch.ErrorRecords, batch.Status, batch.Notes, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to update import batch %s: %w", batch.ID, err)
	}
	return nil
}

// GetImportBatch retrieves a ledger row by id.
func (r *SQLLedgerRepository) GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT id, file_name, file_size, total_records, processed_records,
			inserted_records, updated_records, error_records, status, notes,
			created_at, updated_at
		FROM import_batches WHERE id = ?`), id)

	var batch model.ImportBatch
	err := row.Scan(&batch.ID, &batch.FileName, &batch.FileSize, &batch.TotalRecords,
		&batch.ProcessedRecords, &batch.InsertedRecords, &batch.UpdatedRecords,
		&batch.ErrorRecords, &batch.Status, &batch.Notes, &batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get import batch %s: %w", id, err)
	}
	return &batch, nil
}

// Close is a no-op; the connection pool is owned by the inventory
// repository for the same backend.
func (r *SQLLedgerRepository) Close() error {
	return nil
}

// Ensure SQLLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*SQLLedgerRepository)(nil)
