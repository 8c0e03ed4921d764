package api

import (
	"encoding/json"
	"net/http"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Ledger API ─────────────────────────────────────────────────────────────
//
// POST   /api/sales                    record a Cash, Mpesa or Credit sale
// POST   /api/payments                 record a payment against a balance
// GET    /api/customers                customers with balance and in_credit
// GET    /api/customers/{id}           one customer
// GET    /api/customers/{id}/history   one customer's records, newest first
// GET    /api/history[?customer_id=]   all records, newest first
// POST   /api/customers                (admin) create customer
// DELETE /api/customers/{id}           (admin) delete customer

type createCustomerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Location string `json:"location" validate:"max=120"`
	Driver   string `json:"driver" validate:"max=120"`
}

type recordSaleRequest struct {
	CustomerID            int64       `json:"customer_id" validate:"required,gt=0"`
	Amount                json.Number `json:"amount" validate:"required"`
	PaymentMethod         string      `json:"payment_method" validate:"required"`
	CounterpartyReference string      `json:"counterparty_reference" validate:"max=64"`
}

type recordPaymentRequest struct {
	CustomerID int64       `json:"customer_id" validate:"required,gt=0"`
	Amount     json.Number `json:"amount" validate:"required"`
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	c, err := s.ledger.CreateCustomer(r.Context(), req.Name, req.Location, req.Driver)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCustomer(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	c, err := s.ledger.GetCustomer(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        c.ID,
		"name":      c.Name,
		"location":  c.Location,
		"driver":    c.Driver,
		"balance":   c.Balance,
		"in_credit": c.InCredit(),
	})
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListCustomersWithBalance(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"customers": list})
}

func (s *Server) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req recordSaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	rec, err := s.ledger.RecordSale(r.Context(), req.CustomerID, amount, method, req.CounterpartyReference)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	receipt, err := s.ledger.RecordPayment(r.Context(), req.CustomerID, amount)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var f domain.HistoryFilter
	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		f = domain.ForCustomer(id)
	}
	s.writeHistory(w, r, f)
}

func (s *Server) handleCustomerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeHistory(w, r, domain.ForCustomer(id))
}

func (s *Server) writeHistory(w http.ResponseWriter, r *http.Request, f domain.HistoryFilter) {
	entries, err := s.ledger.CollectHistory(r.Context(), f)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}
