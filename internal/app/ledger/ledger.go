// Package ledger records credit sales and payments against customer
// balances.
//
// Every sale or payment is one atomic step: the balance change and the
// appended sale record commit together or not at all. Calls against the
// same customer are serialized in-process, and the store's write
// transaction serializes them across processes.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/waflora/waflora/internal/domain"
	"github.com/waflora/waflora/internal/infra/observability"
)

// Ledger is the customer credit ledger.
type Ledger struct {
	store  domain.LedgerStore
	locks  *keyedMutex
	now    func() time.Time
	logger zerolog.Logger
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger used for recorded operations.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a ledger over store.
func New(store domain.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		locks:  newKeyedMutex(),
		now:    time.Now,
		logger: log.With().Str("component", "ledger").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ─── Customer Store ─────────────────────────────────────────────────────────

// CreateCustomer adds a customer with a zero balance.
func (l *Ledger) CreateCustomer(ctx context.Context, name, location, driver string) (*domain.Customer, error) {
	c, err := domain.NewCustomer(name, location, driver)
	if err != nil {
		return nil, l.fail("create_customer", err)
	}
	if err := l.store.InsertCustomer(ctx, c); err != nil {
		return nil, l.fail("create_customer", err)
	}
	l.logger.Info().Int64("customer_id", c.ID).Str("name", c.Name).Msg("customer created")
	return c, nil
}

// DeleteCustomer removes a customer. Its sale records stay in the log.
func (l *Ledger) DeleteCustomer(ctx context.Context, id int64) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	if err := l.store.DeleteCustomer(ctx, id); err != nil {
		return l.fail("delete_customer", err)
	}
	l.logger.Info().Int64("customer_id", id).Msg("customer deleted")
	return nil
}

// GetCustomer returns one customer.
func (l *Ledger) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := l.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, l.fail("get_customer", err)
	}
	return c, nil
}

// ListCustomers returns all customers.
func (l *Ledger) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	list, err := l.store.ListCustomers(ctx)
	if err != nil {
		return nil, l.fail("list_customers", err)
	}
	return list, nil
}

// ─── Sale Recorder ──────────────────────────────────────────────────────────

// RecordSale appends a sale. Credit sales also raise the customer's
// balance by amount; Cash and Mpesa sales leave it untouched. The
// counterparty reference is kept only for Mpesa. Recording the same sale
// twice produces two records.
func (l *Ledger) RecordSale(ctx context.Context, customerID int64, amount decimal.Decimal, method domain.PaymentMethod, counterparty string) (*domain.SaleRecord, error) {
	const op = "record_sale"
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, l.fail(op, err)
	}
	if !method.IsSaleMethod() {
		return nil, l.fail(op, fmt.Errorf("%w: payment method %q cannot be used for a sale", domain.ErrValidation, method))
	}

	rec := &domain.SaleRecord{
		CustomerID:    customerID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        method.Status(),
	}
	if method == domain.MethodMpesa {
		rec.CounterpartyReference = strings.TrimSpace(counterparty)
	}

	unlock := l.locks.Lock(customerID)
	defer unlock()

	err := l.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetCustomer(ctx, customerID); err != nil {
			return err
		}
		if rec.Status == domain.StatusCredit {
			if _, err := tx.AdjustBalance(ctx, customerID, amount); err != nil {
				return err
			}
		}
		rec.Timestamp = l.now()
		return tx.AppendSale(ctx, rec)
	})
	if err != nil {
		return nil, l.fail(op, err)
	}

	amt, _ := amount.Float64()
	observability.SalesRecorded.WithLabelValues(string(method)).Inc()
	observability.SaleAmount.WithLabelValues(string(method)).Add(amt)
	l.logger.Info().
		Int64("customer_id", customerID).
		Int64("sale_id", rec.ID).
		Str("method", string(method)).
		Str("amount", domain.FormatMoney(amount)).
		Msg("sale recorded")
	return rec, nil
}

// ─── Payment Recorder ───────────────────────────────────────────────────────

// RecordPayment lowers the customer's balance by amount, floored at zero,
// and appends a negative Payment record for the full amount. Any part of
// the payment above the balance is absorbed and reported as Unapplied.
func (l *Ledger) RecordPayment(ctx context.Context, customerID int64, amount decimal.Decimal) (*domain.PaymentReceipt, error) {
	const op = "record_payment"
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, l.fail(op, err)
	}

	unlock := l.locks.Lock(customerID)
	defer unlock()

	var receipt domain.PaymentReceipt
	err := l.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		c, err := tx.GetCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		applied := decimal.Min(amount, c.Balance)
		if applied.IsNegative() {
			applied = decimal.Zero
		}
		after, err := tx.AdjustBalance(ctx, customerID, applied.Neg())
		if err != nil {
			return err
		}

		rec := domain.SaleRecord{
			CustomerID:    customerID,
			Amount:        amount.Neg(),
			PaymentMethod: domain.MethodPayment,
			Status:        domain.StatusPaid,
			Timestamp:     l.now(),
		}
		if err := tx.AppendSale(ctx, &rec); err != nil {
			return err
		}
		receipt = domain.PaymentReceipt{
			Sale:         rec,
			BalanceAfter: after,
			Unapplied:    amount.Sub(applied),
		}
		return nil
	})
	if err != nil {
		return nil, l.fail(op, err)
	}

	observability.PaymentsRecorded.Inc()
	level := zerolog.InfoLevel
	if receipt.Unapplied.IsPositive() {
		unapplied, _ := receipt.Unapplied.Float64()
		observability.UnappliedPayments.Add(unapplied)
		level = zerolog.WarnLevel
	}
	l.logger.WithLevel(level).
		Int64("customer_id", customerID).
		Int64("sale_id", receipt.Sale.ID).
		Str("amount", domain.FormatMoney(amount)).
		Str("balance_after", domain.FormatMoney(receipt.BalanceAfter)).
		Str("unapplied", domain.FormatMoney(receipt.Unapplied)).
		Msg("payment recorded")
	return &receipt, nil
}

// ─── Ledger Query ───────────────────────────────────────────────────────────

// CustomerBalance is a customer with its display flag.
type CustomerBalance struct {
	domain.Customer
	InCredit bool `json:"in_credit"`
}

// ListCustomersWithBalance returns every customer flagged in credit when
// its balance is above zero.
func (l *Ledger) ListCustomersWithBalance(ctx context.Context) ([]CustomerBalance, error) {
	list, err := l.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CustomerBalance, 0, len(list))
	for _, c := range list {
		out = append(out, CustomerBalance{Customer: c, InCredit: c.InCredit()})
	}
	return out, nil
}

// History returns the sale log newest first, optionally for one customer.
// The sequence is lazy and each range over it re-reads the log.
func (l *Ledger) History(ctx context.Context, f domain.HistoryFilter) iter.Seq2[domain.HistoryEntry, error] {
	return l.store.History(ctx, f)
}

// CollectHistory drains History into a slice.
func (l *Ledger) CollectHistory(ctx context.Context, f domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for e, err := range l.History(ctx, f) {
		if err != nil {
			return nil, l.fail("history", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// fail counts the error and hands it back unchanged.
func (l *Ledger) fail(op string, err error) error {
	observability.OperationErrors.WithLabelValues(op, observability.ErrorKind(err)).Inc()
	return err
}
