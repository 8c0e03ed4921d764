// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture: it depends on nothing
// except value libraries.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Customer ───────────────────────────────────────────────────────────────

// Customer is a buyer that may carry an outstanding credit balance.
type Customer struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Location string          `json:"location,omitempty"`
	Driver   string          `json:"driver,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
}

// InCredit reports whether the customer owes money. Balance is never
// negative, so this is the only flag the UI needs.
func (c Customer) InCredit() bool {
	return c.Balance.IsPositive()
}

// NewCustomer validates and normalizes input for a new customer.
// The balance always starts at zero.
func NewCustomer(name, location, driver string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	return &Customer{
		Name:     name,
		Location: strings.TrimSpace(location),
		Driver:   strings.TrimSpace(driver),
		Balance:  decimal.Zero,
	}, nil
}

// ─── Amounts ────────────────────────────────────────────────────────────────

// ParseAmount parses a user-supplied money amount. Anything that is not a
// finite, non-negative number is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrValidation, s)
	}
	return d, ValidateAmount(d)
}

// AmountFromFloat converts a float amount, rejecting NaN and infinities
// (decimal.NewFromFloat panics on them).
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: amount must be finite", ErrValidation)
	}
	d := decimal.NewFromFloat(f)
	return d, ValidateAmount(d)
}

// MaxAmount is the largest single sale or payment the ledger accepts.
var MaxAmount = decimal.New(1, 12)

// Amounts are kept in REAL columns, so an accepted amount must survive a
// float64 round trip unchanged. The exponent window is checked before any
// arithmetic so that inputs like 1e2000000000 are never expanded.
const (
	maxAmountExponent = 12
	maxAmountScale    = 8
)

// ValidateAmount rejects negative amounts and amounts that cannot be
// stored exactly.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	if d.IsZero() {
		return nil
	}
	if d.Exponent() < -maxAmountScale {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrValidation, maxAmountScale)
	}
	if d.Exponent() > maxAmountExponent || d.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: amount must not exceed %s", ErrValidation, MaxAmount.String())
	}
	if !Storable(d) {
		return fmt.Errorf("%w: amount %s has too many significant digits", ErrValidation, d.String())
	}
	return nil
}

// Storable reports whether d survives conversion to float64 and back.
// Balances and sale amounts are checked against it before every write.
func Storable(d decimal.Decimal) bool {
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return decimal.NewFromFloat(f).Equal(d)
}

// FormatMoney renders an amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ─── Products ───────────────────────────────────────────────────────────────

// Product is a price list entry.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Packing        string          `json:"packing,omitempty"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Barcode        string          `json:"barcode,omitempty"`
}

// Validate checks the fields every stored product must satisfy.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Packing = strings.TrimSpace(p.Packing)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.RetailPrice.IsNegative() || p.WholesalePrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", ErrValidation)
	}
	for _, price := range []decimal.Decimal{p.RetailPrice, p.WholesalePrice} {
		if err := ValidateAmount(price); err != nil {
			return err
		}
	}
	return nil
}

// ─── Accounts ───────────────────────────────────────────────────────────────

// Role is the capability level of a signed-in user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

// Worker is a shop staff account stored in the database.
type Worker struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal identifies the caller of a ledger operation.
// The admin principal has UserID 0.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the principal may manage customers, products
// and workers.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
