package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Sale Log Operations ────────────────────────────────────────────────────

// appendSale inserts a sale record and sets s.ID. Records are never updated.
func appendSale(ctx context.Context, q querier, s *domain.SaleRecord) error {
	if !domain.Storable(s.Amount) {
		return fmt.Errorf("%w: amount %s cannot be stored exactly", domain.ErrValidation, s.Amount.String())
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO sales (customer_id, amount, payment_method, counterparty_reference, status, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.CustomerID, s.Amount, string(s.PaymentMethod), nullString(s.CounterpartyReference),
		string(s.Status), formatTime(s.Timestamp))
	if err != nil {
		return storageErr("append sale", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("append sale", err)
	}
	s.ID = id
	return nil
}

// History yields sale records newest first, joined with the customer's
// current name. Records of deleted customers are kept and named
// domain.UnknownCustomerName. Iteration stops at the first error, which is
// yielded as the final element.
func (db *DB) History(ctx context.Context, f domain.HistoryFilter) iter.Seq2[domain.HistoryEntry, error] {
	return func(yield func(domain.HistoryEntry, error) bool) {
		query := `
			SELECT s.id, s.customer_id, s.amount, s.payment_method, s.counterparty_reference,
			       s.status, s.timestamp, COALESCE(c.name, ?)
			FROM sales s LEFT JOIN customers c ON c.id = s.customer_id`
		args := []any{domain.UnknownCustomerName}
		if f.CustomerID != nil {
			query += ` WHERE s.customer_id = ?`
			args = append(args, *f.CustomerID)
		}
		query += ` ORDER BY s.timestamp DESC, s.id DESC`

		rows, err := db.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(domain.HistoryEntry{}, storageErr("query history", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanHistoryEntry(rows)
			if err != nil {
				yield(domain.HistoryEntry{}, storageErr("scan history", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.HistoryEntry{}, storageErr("query history", err))
		}
	}
}

// CountSales returns the number of records in the sale log.
func (db *DB) CountSales(ctx context.Context) (int64, error) {
	var n int64
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n); err != nil {
		return 0, storageErr("count sales", err)
	}
	return n, nil
}

func scanHistoryEntry(r rowScanner) (domain.HistoryEntry, error) {
	var (
		e            domain.HistoryEntry
		method       string
		status       string
		counterparty sql.NullString
		ts           string
	)
	if err := r.Scan(&e.ID, &e.CustomerID, &e.Amount, &method, &counterparty,
		&status, &ts, &e.CustomerName); err != nil {
		return domain.HistoryEntry{}, err
	}
	e.PaymentMethod = domain.PaymentMethod(method)
	e.Status = domain.SaleStatus(status)
	e.CounterpartyReference = counterparty.String
	e.Timestamp = parseTime(ts)
	return e, nil
}
