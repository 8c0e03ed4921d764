// Package observability holds the Prometheus metrics exported on /metrics.
package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/waflora/waflora/internal/domain"
)

const namespace = "waflora"

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// SalesRecorded counts recorded sales by payment method.
var SalesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "sales_total",
	Help:      "Total sales recorded by payment method.",
}, []string{"method"})

// SaleAmount sums recorded sale amounts by payment method.
var SaleAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "sale_amount_total",
	Help:      "Sum of recorded sale amounts by payment method.",
}, []string{"method"})

// PaymentsRecorded counts recorded payments.
var PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "payments_total",
	Help:      "Total payments recorded against customer balances.",
})

// UnappliedPayments sums payment amounts absorbed by the zero balance floor.
var UnappliedPayments = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "unapplied_payment_total",
	Help:      "Sum of overpaid amounts that exceeded the customer balance.",
})

// OperationErrors counts failed ledger operations by error kind.
var OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operation_errors_total",
	Help:      "Failed ledger operations by operation and error kind.",
}, []string{"op", "kind"})

// ─── HTTP Metrics ───────────────────────────────────────────────────────────

// HTTPRequests counts served requests by method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by method and status.",
}, []string{"method", "status"})

// HTTPDuration tracks request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
}, []string{"method"})

// ErrorKind classifies an error for metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
