package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Worker Operations ──────────────────────────────────────────────────────

// InsertWorker stores a staff account. A taken username yields
// domain.ErrConflict.
func (db *DB) InsertWorker(ctx context.Context, w *domain.Worker) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, created_at)
		VALUES (?, ?, ?, ?)
	`, w.Username, w.PasswordHash, string(w.Role), w.CreatedAt.UTC().Format(time.DateTime))
	if isUniqueViolation(err) {
		return fmt.Errorf("username %q: %w", w.Username, domain.ErrConflict)
	}
	if err != nil {
		return storageErr("insert worker", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("insert worker", err)
	}
	w.ID = id
	return nil
}

// GetWorkerByUsername returns domain.ErrNotFound when no account matches.
func (db *DB) GetWorkerByUsername(ctx context.Context, username string) (*domain.Worker, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, username, password, role, created_at FROM users WHERE username = ?
	`, username)
	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("worker %q: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get worker", err)
	}
	return w, nil
}

// ListWorkers returns all accounts ordered by username.
func (db *DB) ListWorkers(ctx context.Context) ([]domain.Worker, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, username, password, role, created_at FROM users ORDER BY username
	`)
	if err != nil {
		return nil, storageErr("list workers", err)
	}
	defer rows.Close()

	var result []domain.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, storageErr("scan worker", err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list workers", err)
	}
	return result, nil
}

// DeleteWorker removes an account.
func (db *DB) DeleteWorker(ctx context.Context, id int64) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete worker", err)
	}
	return requireAffected(res, "worker", id)
}

func scanWorker(r rowScanner) (*domain.Worker, error) {
	var (
		w       domain.Worker
		role    string
		created string
	)
	if err := r.Scan(&w.ID, &w.Username, &w.PasswordHash, &role, &created); err != nil {
		return nil, err
	}
	w.Role = domain.Role(role)
	w.CreatedAt = parseTime(created)
	return &w, nil
}
