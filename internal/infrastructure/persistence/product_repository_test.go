package persistence

import (
	"context"
	"testing"

	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type catalogFixture struct {
	talla  *catalog.Attribute
	color  *catalog.Attribute
	s, m   catalog.AttributeValue
	negro  catalog.AttributeValue
	blanco catalog.AttributeValue
}

func seedAttributes(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	repo := NewGormAttributeRepository(db)
	ctx := context.Background()

	talla, err := catalog.NewAttribute("Talla")
	require.NoError(t, err)
	s, err := talla.AddValue("S")
	require.NoError(t, err)
	m, err := talla.AddValue("M")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, talla))

	color, err := catalog.NewAttribute("Color")
	require.NoError(t, err)
	negro, err := color.AddValue("Negro")
	require.NoError(t, err)
	blanco, err := color.AddValue("Blanco")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, color))

	return catalogFixture{talla: talla, color: color, s: *s, m: *m, negro: *negro, blanco: *blanco}
}

func newTestProduct(t *testing.T, f catalogFixture, name string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, "Lino lavado", "Vestidos", catalog.GenderWomen)
	require.NoError(t, err)
	require.NoError(t, p.SetAttributes([]catalog.Attribute{*f.talla, *f.color}))

	sale := decimal.RequireFromString("99.90")
	_, err = p.AddVariant(catalog.VariantInput{
		Price:     decimal.RequireFromString("129.90"),
		SalePrice: &sale,
		IsActive:  true,
		// given out of attribute order on purpose
		Values: []catalog.AttributeValue{f.negro, f.s},
	})
	require.NoError(t, err)
	_, err = p.AddVariant(catalog.VariantInput{
		Price:    decimal.RequireFromString("129.90"),
		IsActive: true,
		Values:   []catalog.AttributeValue{f.m, f.blanco},
	})
	require.NoError(t, err)
	_, err = p.AddImage("https://cdn.example.com/a.jpg", "front", nil, true)
	require.NoError(t, err)
	return p
}

func TestGormProductRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seedAttributes(t, db)
	repo := NewGormProductRepository(db)

	p := newTestProduct(t, f, "Vestido Aurora")
	require.NoError(t, repo.Save(ctx, p))

	t.Run("loads the whole aggregate by slug", func(t *testing.T) {
		loaded, err := repo.FindBySlug(ctx, "  VESTIDO-AURORA ")
		require.NoError(t, err)

		assert.Equal(t, p.ID, loaded.ID)
		assert.Equal(t, catalog.GenderWomen, loaded.Gender)
		require.Len(t, loaded.Attributes, 2)
		assert.Equal(t, "Talla", loaded.Attributes[0].Name)
		assert.Len(t, loaded.Attributes[0].Values, 2)
		require.Len(t, loaded.Variants, 2)
		require.Len(t, loaded.Images, 1)
		assert.True(t, loaded.Images[0].IsPrimary)

		v := loaded.FindVariant(p.Variants[0].ID)
		require.NotNil(t, v)
		require.Len(t, v.Values, 2)
		assert.Equal(t, "Talla", v.Values[0].AttributeName)
		assert.Equal(t, "S", v.Values[0].Value)
		assert.Equal(t, "Negro", v.Values[1].Value)
		require.NotNil(t, v.SalePrice)
		assert.True(t, v.SalePrice.Equal(decimal.RequireFromString("99.90")))
	})

	t.Run("resolves a variant from the stored combination", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		rv, ok := catalog.ResolveVariant(loaded, map[string]string{"Talla": "M", "Color": "Blanco"})
		require.True(t, ok)
		assert.Equal(t, p.Variants[1].ID, rv.VariantID)
	})

	t.Run("FindVariants carries product name", func(t *testing.T) {
		variants, err := repo.FindVariants(ctx, []uuid.UUID{p.Variants[0].ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, variants, 1)
		assert.Equal(t, "Vestido Aurora", variants[0].ProductName)
		assert.True(t, variants[0].ProductActive)
		assert.Len(t, variants[0].Values, 2)
	})

	t.Run("unknown variant is not found", func(t *testing.T) {
		_, err := repo.FindVariant(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("uniqueness checks", func(t *testing.T) {
		exists, err := repo.ExistsBySlug(ctx, "vestido-aurora", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySlug(ctx, "vestido-aurora", p.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsBySKU(ctx, p.Variants[0].SKU, uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestGormProductRepository_UpdateKeepsStockTotal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seedAttributes(t, db)
	repo := NewGormProductRepository(db)

	p := newTestProduct(t, f, "Blusa Mar")
	require.NoError(t, repo.Save(ctx, p))
	variantID := p.Variants[0].ID
	require.NoError(t, db.Exec("UPDATE variants SET stock_total = 7 WHERE id = ?", variantID).Error)

	_, err := p.UpdateVariant(variantID, catalog.VariantInput{
		Price:    decimal.RequireFromString("150.00"),
		IsActive: false,
	})
	require.NoError(t, err)
	p.Images = nil
	require.NoError(t, repo.Save(ctx, p))

	v, err := repo.FindVariant(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 7, v.StockTotal)
	assert.False(t, v.IsActive)
	assert.Nil(t, v.SalePrice)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("150")))

	loaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Images)
	assert.Len(t, loaded.Variants[0].Values, 2)
}

func TestGormProductRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seedAttributes(t, db)
	repo := NewGormProductRepository(db)

	require.NoError(t, repo.Save(ctx, newTestProduct(t, f, "Vestido Aurora")))
	require.NoError(t, repo.Save(ctx, newTestProduct(t, f, "Vestido 100% Lino")))
	hidden := newTestProduct(t, f, "Falda Luna")
	require.NoError(t, hidden.Update(hidden.Name, "", "Faldas", catalog.GenderWomen, false))
	require.NoError(t, repo.Save(ctx, hidden))

	tests := []struct {
		name  string
		mod   func(*shared.Filter)
		total int64
	}{
		{"everything", func(*shared.Filter) {}, 3},
		{"active only", func(f *shared.Filter) { f.Filters = map[string]any{"active": "true"} }, 2},
		{"search", func(f *shared.Filter) { f.Search = "vestido" }, 2},
		{"search escapes wildcards", func(f *shared.Filter) { f.Search = "100%" }, 1},
		{"category", func(f *shared.Filter) { f.Filters = map[string]any{"category": "faldas"} }, 1},
		{"gender", func(f *shared.Filter) { f.Filters = map[string]any{"gender": "men"} }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := shared.DefaultFilter()
			tt.mod(&filter)
			products, total, err := repo.FindAll(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Len(t, products, int(tt.total))
			for _, p := range products {
				assert.Len(t, p.Variants, 2)
			}
		})
	}
}

func TestGormAttributeRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seedAttributes(t, db)
	repo := NewGormAttributeRepository(db)

	t.Run("FindByName ignores case", func(t *testing.T) {
		attr, err := repo.FindByName(ctx, "talla")
		require.NoError(t, err)
		assert.Equal(t, f.talla.ID, attr.ID)
		assert.Len(t, attr.Values, 2)
	})

	t.Run("adding a value persists it", func(t *testing.T) {
		attr, err := repo.FindByID(ctx, f.talla.ID)
		require.NoError(t, err)
		_, err = attr.AddValue("L")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, attr))

		reloaded, err := repo.FindByID(ctx, f.talla.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.Values, 3)
	})

	t.Run("FindValues carries attribute names", func(t *testing.T) {
		values, err := repo.FindValues(ctx, []uuid.UUID{f.negro.ID, f.s.ID})
		require.NoError(t, err)
		require.Len(t, values, 2)
		names := []string{values[0].AttributeName, values[1].AttributeName}
		assert.ElementsMatch(t, []string{"Color", "Talla"}, names)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := repo.FindByName(ctx, "Material")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
