package persistence

import (
	"context"
	"testing"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	orders := NewGormOrderRepository(db)
	repo := NewGormPaymentRepository(db)

	userID := uuid.New()
	o := newTestOrder(t, userID, "ana@example.com")
	require.NoError(t, orders.Save(ctx, o))

	p, err := payment.NewPayment(o.ID, payment.MethodGateway, payment.OriginCustomer, o.Total)
	require.NoError(t, err)
	require.NoError(t, p.BindGatewayIntent("pi_123", "pi_123_secret"))
	require.NoError(t, repo.Save(ctx, p))

	t.Run("finds by gateway reference without the client secret", func(t *testing.T) {
		loaded, err := repo.FindByGatewayRef(ctx, "pi_123")
		require.NoError(t, err)
		assert.Equal(t, p.ID, loaded.ID)
		assert.Empty(t, loaded.ClientSecret)
		assert.True(t, loaded.Amount.Equal(o.Total))

		_, err = repo.FindByGatewayRef(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("second active payment for the order is a duplicate", func(t *testing.T) {
		dup, err := payment.NewPayment(o.ID, payment.MethodManualProof, payment.OriginCustomer, o.Total)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrDuplicatePayment)
	})

	t.Run("a failed payment frees the order", func(t *testing.T) {
		loaded, err := repo.FindByIDForUpdate(ctx, p.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.MarkFailed("card_declined"))
		require.NoError(t, repo.Save(ctx, loaded))

		retry, err := payment.NewPayment(o.ID, payment.MethodManualProof, payment.OriginCustomer, o.Total)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, retry))

		all, err := repo.FindByOrder(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, payment.StatusFailed, all[0].Status)
		assert.Equal(t, payment.StatusPending, all[1].Status)
	})

	t.Run("stale copy is rejected", func(t *testing.T) {
		all, err := repo.FindByOrder(ctx, o.ID)
		require.NoError(t, err)
		pendingID := all[1].ID

		a, err := repo.FindByID(ctx, pendingID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, pendingID)
		require.NoError(t, err)

		a.SetAdminNotes("checked")
		require.NoError(t, repo.Save(ctx, a))
		b.SetAdminNotes("also checked")
		assert.ErrorIs(t, repo.Save(ctx, b), shared.ErrConcurrencyConflict)
	})

	t.Run("FindByUser joins orders", func(t *testing.T) {
		mine, total, err := repo.FindByUser(ctx, userID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, mine, 2)

		_, total, err = repo.FindByUser(ctx, uuid.New(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("FindAll filters by method", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["method"] = string(payment.MethodManualProof)
		found, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, found, 1)
		assert.Equal(t, payment.MethodManualProof, found[0].Method)
	})
}
