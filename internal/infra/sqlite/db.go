// Package sqlite is the embedded persistence layer. A single *DB owns the
// database file and implements every store interface in domain.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/waflora/waflora/internal/domain"
)

// FileName is the database file created inside the data directory.
const FileName = "waflora.db"

// timeLayout sorts lexicographically in chronological order.
const timeLayout = "2006-01-02 15:04:05.000000"

// Options tunes the connection.
type Options struct {
	BusyTimeout time.Duration
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{BusyTimeout: 5 * time.Second}
}

// DB wraps the sql.DB handle.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database in dir and applies migrations.
func Open(dir string) (*DB, error) {
	return OpenWithOptions(dir, DefaultOptions())
}

// OpenWithOptions is Open with explicit connection options.
func OpenWithOptions(dir string, opts Options) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	// _txlock=immediate makes every BeginTx take the write lock up front, so
	// two ledger transactions can never both read a balance before writing it.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate",
		path, opts.BusyTimeout.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{db: sqlDB, path: path}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close releases the database handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements, applied in order on every Open.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL,
			location TEXT,
			driver   TEXT,
			balance  REAL NOT NULL DEFAULT 0
		)`,

		// Append-only. customer_id is a weak reference: deleting a customer
		// leaves its rows in place.
		`CREATE TABLE IF NOT EXISTS sales (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id            INTEGER NOT NULL,
			amount                 REAL NOT NULL,
			payment_method         TEXT NOT NULL,
			counterparty_reference TEXT,
			status                 TEXT NOT NULL,
			timestamp              TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_timestamp ON sales(timestamp)`,

		`CREATE TABLE IF NOT EXISTS products (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT NOT NULL,
			packing         TEXT,
			retail_price    REAL,
			wholesale_price REAL,
			barcode         TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			username   TEXT UNIQUE NOT NULL,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ─── Transactions ───────────────────────────────────────────────────────────

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithinTx runs fn inside one write transaction. If fn returns an error
// (or panics) nothing it wrote is kept.
func (db *DB) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&ledgerTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

// ledgerTx implements domain.LedgerTx on top of an open transaction.
type ledgerTx struct {
	q querier
}

func (t *ledgerTx) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return getCustomer(ctx, t.q, id)
}

func (t *ledgerTx) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return adjustBalance(ctx, t.q, id, delta)
}

func (t *ledgerTx) AppendSale(ctx context.Context, s *domain.SaleRecord) error {
	return appendSale(ctx, t.q, s)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// storageErr tags a driver error as domain.ErrStorage while keeping the
// original error in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts both the fractional layout and plain datetime('now') output.
func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
