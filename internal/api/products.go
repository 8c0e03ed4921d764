package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Price List API ─────────────────────────────────────────────────────────

type productRequest struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Packing        string          `json:"packing" validate:"max=60"`
	RetailPrice    decimal.Decimal `json:"retail_price" validate:"gte=0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" validate:"gte=0"`
	Barcode        string          `json:"barcode" validate:"max=64"`
}

func (req productRequest) product(id int64) *domain.Product {
	return &domain.Product{
		ID:             id,
		Name:           req.Name,
		Packing:        req.Packing,
		RetailPrice:    req.RetailPrice,
		WholesalePrice: req.WholesalePrice,
		Barcode:        req.Barcode,
	}
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": list})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	p, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := req.product(0)
	if err := s.catalog.AddProduct(r.Context(), p); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var req productRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := req.product(id)
	if err := s.catalog.UpdateProduct(r.Context(), p); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
