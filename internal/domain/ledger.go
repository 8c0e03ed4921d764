package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Ledger Types ───────────────────────────────────────────────────────────
// A customer's balance plus the append-only log of sale records that
// produced it.

// PaymentMethod is how a sale was settled, or "Payment" for entries that
// reduce a balance.
type PaymentMethod string

const (
	MethodCash    PaymentMethod = "Cash"
	MethodMpesa   PaymentMethod = "Mpesa"
	MethodCredit  PaymentMethod = "Credit"
	MethodPayment PaymentMethod = "Payment"
)

// SaleStatus is the settlement state of a sale record.
type SaleStatus string

const (
	StatusPaid   SaleStatus = "Paid"
	StatusCredit SaleStatus = "Credit"
)

// UnknownCustomerName is shown for history entries whose customer was deleted.
const UnknownCustomerName = "Unknown"

// ParsePaymentMethod accepts a method name in any letter case.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range []PaymentMethod{MethodCash, MethodMpesa, MethodCredit, MethodPayment} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, s)
}

// IsSaleMethod reports whether m may be used when recording a sale.
// MethodPayment is reserved for the payment recorder.
func (m PaymentMethod) IsSaleMethod() bool {
	return m == MethodCash || m == MethodMpesa || m == MethodCredit
}

// Status returns the settlement status for a record with this method.
func (m PaymentMethod) Status() SaleStatus {
	if m == MethodCredit {
		return StatusCredit
	}
	return StatusPaid
}

// SaleRecord is one immutable ledger entry. Payments are stored as
// negative amounts with MethodPayment.
type SaleRecord struct {
	ID                    int64           `json:"id"`
	CustomerID            int64           `json:"customer_id"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentMethod         PaymentMethod   `json:"payment_method"`
	CounterpartyReference string          `json:"counterparty_reference,omitempty"`
	Status                SaleStatus      `json:"status"`
	Timestamp             time.Time       `json:"timestamp"`
}

// IsPayment reports whether the record was produced by a payment.
func (r SaleRecord) IsPayment() bool { return r.PaymentMethod == MethodPayment }

// HistoryEntry is a sale record joined with its customer's current name.
type HistoryEntry struct {
	SaleRecord
	CustomerName string `json:"customer_name"`
}

// HistoryFilter narrows a history query. A nil CustomerID means all customers.
type HistoryFilter struct {
	CustomerID *int64
}

// ForCustomer returns a filter for a single customer's records.
func ForCustomer(id int64) HistoryFilter {
	return HistoryFilter{CustomerID: &id}
}

// PaymentReceipt is the outcome of recording a payment.
type PaymentReceipt struct {
	Sale         SaleRecord      `json:"sale"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	// Unapplied is the part of the payment that exceeded the balance and
	// was absorbed by the zero floor.
	Unapplied decimal.Decimal `json:"unapplied"`
}
