// Package catalog maintains the shop price list.
package catalog

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waflora/waflora/internal/domain"
)

// Service manages products.
type Service struct {
	store  domain.ProductStore
	logger zerolog.Logger
}

// New creates a catalog service over store.
func New(store domain.ProductStore) *Service {
	return &Service{
		store:  store,
		logger: log.With().Str("component", "catalog").Logger(),
	}
}

// AddProduct validates and stores a new product, setting its ID.
func (s *Service) AddProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("product added")
	return nil
}

// UpdateProduct replaces every field of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", p.ID).Msg("product updated")
	return nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// SearchProducts matches q against name and barcode. An empty q lists
// everything.
func (s *Service) SearchProducts(ctx context.Context, q string) ([]domain.Product, error) {
	return s.store.SearchProducts(ctx, q)
}
