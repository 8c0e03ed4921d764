package domain

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"
)

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the application layer depends on them.

// CustomerStore persists customers. It never mutates balances.
type CustomerStore interface {
	InsertCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

// LedgerTx is the write surface available inside a ledger transaction.
// Every call made through one LedgerTx commits or rolls back together.
type LedgerTx interface {
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	// AdjustBalance adds delta to the stored balance and returns the new
	// value. It does not clamp; callers are responsible for the floor.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
	AppendSale(ctx context.Context, s *SaleRecord) error
}

// SaleLog reads the append-only sale log.
type SaleLog interface {
	// History yields entries newest first. Each range over the returned
	// sequence runs a fresh query.
	History(ctx context.Context, f HistoryFilter) iter.Seq2[HistoryEntry, error]
}

// LedgerStore is everything the ledger service needs from storage.
type LedgerStore interface {
	CustomerStore
	SaleLog
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// ProductStore persists the price list.
type ProductStore interface {
	InsertProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id int64) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// WorkerStore persists staff accounts.
type WorkerStore interface {
	InsertWorker(ctx context.Context, w *Worker) error
	GetWorkerByUsername(ctx context.Context, username string) (*Worker, error)
	ListWorkers(ctx context.Context) ([]Worker, error)
	DeleteWorker(ctx context.Context, id int64) error
}
