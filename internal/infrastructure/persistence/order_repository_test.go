package persistence

import (
	"context"
	"testing"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, userID uuid.UUID, email string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(userID, email, order.ShippingAddress{
		FullName: "Ana Torres",
		Street:   "Av. Larco 123",
		City:     "Lima",
		Country:  "PE",
	}, []order.LineInput{
		{VariantID: uuid.New(), ProductName: "Vestido Aurora", SKU: "VA-M-NEGRO", VariantLabel: "M / Negro",
			UnitPrice: decimal.RequireFromString("99.90"), Quantity: 2},
		{VariantID: uuid.New(), ProductName: "Blusa Mar", SKU: "BM-S", VariantLabel: "S",
			UnitPrice: decimal.RequireFromString("45.00"), Quantity: 1},
	})
	require.NoError(t, err)
	return o
}

func TestGormOrderRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	o := newTestOrder(t, userID, "ana@example.com")
	require.NoError(t, repo.Save(ctx, o))

	loaded, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, loaded.Number)
	assert.Equal(t, order.StatusPending, loaded.Status)
	assert.Equal(t, "Lima", loaded.ShippingAddress.City)
	assert.Len(t, loaded.Lines, 2)
	assert.True(t, loaded.Total.Equal(decimal.RequireFromString("244.80")))

	t.Run("status update leaves lines alone", func(t *testing.T) {
		require.NoError(t, loaded.MarkPaid())
		require.NoError(t, repo.Save(ctx, loaded))

		again, err := repo.FindByIDForUpdate(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, again.Status)
		require.NotNil(t, again.PaidAt)
		assert.Len(t, again.Lines, 2)
		assert.Equal(t, o.Version+1, again.Version)
	})

	t.Run("stale copy is rejected", func(t *testing.T) {
		a, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, a))
		assert.ErrorIs(t, repo.Save(ctx, b), shared.ErrConcurrencyConflict)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_Lists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	ana := uuid.New()
	luis := uuid.New()
	first := newTestOrder(t, ana, "ana@example.com")
	require.NoError(t, repo.Save(ctx, first))
	second := newTestOrder(t, ana, "ana@example.com")
	require.NoError(t, second.Cancel("changed my mind"))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, newTestOrder(t, luis, "luis@example.com")))

	t.Run("FindByUser is scoped", func(t *testing.T) {
		orders, total, err := repo.FindByUser(ctx, ana, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, o := range orders {
			assert.Equal(t, ana, o.UserID)
		}
	})

	t.Run("FindAll filters", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = "CANCELLED"
		orders, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, "changed my mind", orders[0].CancelReason)

		filter = shared.DefaultFilter()
		filter.Search = "LUIS@"
		_, total, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		filter = shared.DefaultFilter()
		filter.Filters["user_id"] = "not-a-uuid"
		_, _, err = repo.FindAll(ctx, filter)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
