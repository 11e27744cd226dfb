package catalog

import (
	"context"
	"testing"

	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStorefront(t *testing.T) (*StorefrontService, *testutil.MockProductRepository, *testutil.PoloFixture) {
	t.Helper()
	repo := new(testutil.MockProductRepository)
	fx := testutil.NewPoloFixture()
	return NewStorefrontService(repo, zap.NewNop()), repo, fx
}

func TestStorefront_Resolve(t *testing.T) {
	ctx := context.Background()
	svc, repo, fx := newStorefront(t)
	repo.On("FindBySlug", ctx, "polo-basico").Return(fx.Product, nil)

	t.Run("full selection resolves", func(t *testing.T) {
		res, err := svc.Resolve(ctx, "polo-basico", map[string]string{"Talla": "M", "Color": "Blanco"})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, "POLO-M-BLANCO", res.SKU)
		assert.Equal(t, "39.9", res.SalePrice.String())
		assert.Equal(t, 10, res.StockTotal)
	})

	t.Run("partial selection with a single candidate resolves", func(t *testing.T) {
		res, err := svc.Resolve(ctx, "polo-basico", map[string]string{"Talla": "S", "Color": ""})
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, "POLO-S-NEGRO", res.SKU)
	})

	t.Run("ambiguous selection is not found", func(t *testing.T) {
		res, err := svc.Resolve(ctx, "polo-basico", map[string]string{"Talla": "M"})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Equal(t, 2, res.Candidates)
		assert.Nil(t, res.VariantID)
	})

	t.Run("unknown combination is not found", func(t *testing.T) {
		res, err := svc.Resolve(ctx, "polo-basico", map[string]string{"Talla": "S", "Color": "Blanco"})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Zero(t, res.Candidates)
	})
}

func TestStorefront_ResolveSkipsInactiveVariants(t *testing.T) {
	ctx := context.Background()
	svc, repo, fx := newStorefront(t)
	fx.Product.Variants[1].IsActive = false // M/Negro
	repo.On("FindBySlug", ctx, "polo-basico").Return(fx.Product, nil)

	res, err := svc.Resolve(ctx, "polo-basico", map[string]string{"Talla": "M"})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "POLO-M-BLANCO", res.SKU)
}

func TestStorefront_InactiveProductIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo, fx := newStorefront(t)
	fx.Product.IsActive = false
	repo.On("FindBySlug", ctx, "polo-basico").Return(fx.Product, nil)
	repo.On("FindBySlug", ctx, "missing").Return(nil, shared.ErrNotFound)

	_, err := svc.GetProduct(ctx, "polo-basico")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Resolve(ctx, "missing", map[string]string{"Talla": "S"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStorefront_Facets(t *testing.T) {
	ctx := context.Background()
	svc, repo, fx := newStorefront(t)
	repo.On("FindBySlug", ctx, "polo-basico").Return(fx.Product, nil)

	colors, err := svc.Facets(ctx, "polo-basico", "Color")
	require.NoError(t, err)
	require.Len(t, colors, 2)
	assert.Equal(t, "Blanco", colors[0].Value)
	assert.Equal(t, "#FFFFFF", colors[0].Swatch)
	assert.Equal(t, "#000000", colors[1].Swatch)

	sizes, err := svc.Facets(ctx, "polo-basico", "Talla")
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.Empty(t, sizes[0].Swatch)
}

func TestStorefront_ListProducts(t *testing.T) {
	ctx := context.Background()
	svc, repo, fx := newStorefront(t)
	repo.On("FindAll", ctx, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["active"] == true
	})).Return([]catalog.Product{*fx.Product}, int64(1), nil)

	page, err := svc.ListProducts(ctx, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "39.9", page.Items[0].PriceFrom.String())
	assert.True(t, page.Items[0].OnSale)
	assert.True(t, page.Items[0].InStock)
	assert.Equal(t, 1, page.TotalPages)
}

func TestStorefront_GetProductHidesInactiveVariants(t *testing.T) {
	ctx := context.Background()
	svc, repo, fx := newStorefront(t)
	fx.Product.Variants[0].IsActive = false
	repo.On("FindBySlug", ctx, "polo-basico").Return(fx.Product, nil)

	d, err := svc.GetProduct(ctx, "polo-basico")
	require.NoError(t, err)
	assert.Len(t, d.Variants, 2)
	assert.Len(t, d.Attributes, 2)
}
