package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Customer Operations ────────────────────────────────────────────────────

// InsertCustomer stores a new customer with a zero balance and sets c.ID.
func (db *DB) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO customers (name, location, driver, balance)
		VALUES (?, ?, ?, 0)
	`, c.Name, nullString(c.Location), nullString(c.Driver))
	if err != nil {
		return storageErr("insert customer", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("insert customer", err)
	}
	c.ID = id
	c.Balance = decimal.Zero
	return nil
}

// GetCustomer returns domain.ErrNotFound when no row matches.
func (db *DB) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return getCustomer(ctx, db.db, id)
}

// ListCustomers returns all customers ordered by name.
func (db *DB) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, name, location, driver, balance
		FROM customers ORDER BY name COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, storageErr("list customers", err)
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, storageErr("scan customer", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list customers", err)
	}
	return result, nil
}

// DeleteCustomer removes the customer row only. Sales keep their
// customer_id and become orphans.
func (db *DB) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete customer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete customer", err)
	}
	if n == 0 {
		return fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ─── Shared Helpers ─────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(r rowScanner) (*domain.Customer, error) {
	var (
		c                domain.Customer
		location, driver sql.NullString
	)
	if err := r.Scan(&c.ID, &c.Name, &location, &driver, &c.Balance); err != nil {
		return nil, err
	}
	c.Location = location.String
	c.Driver = driver.String
	return &c, nil
}

func getCustomer(ctx context.Context, q querier, id int64) (*domain.Customer, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, location, driver, balance
		FROM customers WHERE id = ?
	`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get customer", err)
	}
	return c, nil
}

// adjustBalance reads and rewrites the balance so the sum is computed in
// decimal rather than REAL arithmetic. It must run inside a transaction.
func adjustBalance(ctx context.Context, q querier, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var current decimal.Decimal
	err := q.QueryRowContext(ctx, `SELECT balance FROM customers WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, storageErr("read balance", err)
	}

	next := current.Add(delta)
	if !domain.Storable(next) {
		return decimal.Zero, fmt.Errorf("%w: balance %s cannot be stored exactly", domain.ErrValidation, next.String())
	}
	if _, err := q.ExecContext(ctx, `UPDATE customers SET balance = ? WHERE id = ?`, next, id); err != nil {
		return decimal.Zero, storageErr("write balance", err)
	}
	return next, nil
}
