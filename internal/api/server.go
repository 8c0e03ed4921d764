// Package api provides the HTTP server for the Wa Flora ledger.
// Workers record sales and payments; the admin also manages customers,
// products and worker accounts.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waflora/waflora/internal/app/accounts"
	"github.com/waflora/waflora/internal/app/catalog"
	"github.com/waflora/waflora/internal/app/ledger"
	"github.com/waflora/waflora/internal/domain"
)

// Server is the Wa Flora HTTP API server.
type Server struct {
	ledger         *ledger.Ledger
	catalog        *catalog.Service
	accounts       *accounts.Service
	metricsEnabled bool
	secureCookies  bool
	logger         zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(l *ledger.Ledger, c *catalog.Service, a *accounts.Service) *Server {
	return &Server{
		ledger:   l,
		catalog:  c,
		accounts: a,
		logger:   log.With().Str("component", "api").Logger(),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SecureCookies marks the session cookie Secure (HTTPS deployments).
func (s *Server) SecureCookies() { s.secureCookies = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/me", s.handleMe)

			r.Get("/products", s.handleSearchProducts)
			r.Get("/products/{id}", s.handleGetProduct)

			r.Post("/sales", s.handleRecordSale)
			r.Post("/payments", s.handleRecordPayment)

			r.Get("/customers", s.handleListCustomers)
			r.Get("/customers/{id}", s.handleGetCustomer)
			r.Get("/customers/{id}/history", s.handleCustomerHistory)
			r.Get("/history", s.handleHistory)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/customers", s.handleCreateCustomer)
				r.Delete("/customers/{id}", s.handleDeleteCustomer)

				r.Post("/products", s.handleAddProduct)
				r.Put("/products/{id}", s.handleUpdateProduct)
				r.Delete("/products/{id}", s.handleDeleteProduct)

				r.Get("/workers", s.handleListWorkers)
				r.Post("/workers", s.handleAddWorker)
				r.Delete("/workers/{id}", s.handleDeleteWorker)
			})
		})
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    kind,
		},
	})
}

// writeDomainError maps a service error onto a status code. Internal
// failures are logged and hidden behind a generic message.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, kind, "internal server error")
		return
	}
	writeError(w, status, kind, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// corsMiddleware adds CORS headers for the shop's browser front end.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
