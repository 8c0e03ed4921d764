package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waflora/waflora/internal/domain"
	"github.com/waflora/waflora/internal/infra/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestAddProduct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p := &domain.Product{
		Name:           "  Maize Flour 2kg ",
		Packing:        "bale of 12",
		RetailPrice:    decimal.RequireFromString("180"),
		WholesalePrice: decimal.RequireFromString("165.50"),
		Barcode:        "6161101660138",
	}
	require.NoError(t, s.AddProduct(ctx, p))
	assert.NotZero(t, p.ID)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maize Flour 2kg", got.Name)
	assert.True(t, got.WholesalePrice.Equal(decimal.RequireFromString("165.5")))
}

func TestAddProduct_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	err := s.AddProduct(ctx, &domain.Product{Name: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = s.AddProduct(ctx, &domain.Product{Name: "Sugar", RetailPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateDeleteProduct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p := &domain.Product{Name: "Sugar 1kg", RetailPrice: decimal.NewFromInt(150)}
	require.NoError(t, s.AddProduct(ctx, p))

	p.RetailPrice = decimal.NewFromInt(160)
	require.NoError(t, s.UpdateProduct(ctx, p))
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.RetailPrice.Equal(decimal.NewFromInt(160)))

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), domain.ErrNotFound)
	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	missing := &domain.Product{ID: 999, Name: "Ghost"}
	assert.ErrorIs(t, s.UpdateProduct(ctx, missing), domain.ErrNotFound)
}

func TestSearchProducts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, p := range []*domain.Product{
		{Name: "Maize Flour", Barcode: "111"},
		{Name: "Wheat Flour", Barcode: "222"},
		{Name: "Cooking Oil", Barcode: "333"},
	} {
		require.NoError(t, s.AddProduct(ctx, p))
	}

	all, err := s.SearchProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	flour, err := s.SearchProducts(ctx, "flour")
	require.NoError(t, err)
	assert.Len(t, flour, 2)

	byCode, err := s.SearchProducts(ctx, "333")
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "Cooking Oil", byCode[0].Name)
}
