package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/masterdata/shared"
	"github.com/printdesk/printdesk/internal/platform/latency"
	internalShared "github.com/printdesk/printdesk/internal/shared"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(latency.New(0)), nil)
}

func TestCreateAndListProducts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	inactive := false

	_, err := svc.Create(ctx, ProductForm{Name: "Cotton Tee", Category: "T-Shirt", BasePrice: 45000, Stock: 100})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ProductForm{Name: "Polo Shirt", Category: "Polo", BasePrice: 85000, Stock: 20})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ProductForm{Name: "Raglan Tee", Category: "T-Shirt", BasePrice: 55000, IsActive: &inactive})
	require.NoError(t, err)

	all, total, err := svc.List(ctx, shared.ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "Cotton Tee", all[0].Name)

	tees, total, err := svc.List(ctx, shared.ListFilters{Search: "t-shirt"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, tees, 2)

	active := true
	_, total, err = svc.List(ctx, shared.ListFilters{Category: "t-shirt", IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	page, total, err := svc.List(ctx, shared.ListFilters{Limit: 2, Page: 2, SortBy: "price", SortDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Cotton Tee", page[0].Name)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService()
	_, err := svc.Create(context.Background(), ProductForm{Name: "  ", Category: "Tee", BasePrice: -1})
	require.ErrorIs(t, err, internalShared.ErrValidation)
	fields, ok := err.(internalShared.FieldErrors)
	require.True(t, ok)
	assert.Contains(t, fields, "base_price")
}

func TestAdjustStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, err := svc.Create(ctx, ProductForm{Name: "Cotton Tee", Category: "T-Shirt", Stock: 5})
	require.NoError(t, err)

	p, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Delta: -3, Reason: "sample run"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	_, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Delta: -3})
	assert.ErrorIs(t, err, internalShared.ErrValidation)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)

	_, err = svc.AdjustStock(ctx, "missing", StockAdjustment{Delta: 1})
	assert.ErrorIs(t, err, internalShared.ErrNotFound)
}
