package payment

import (
	"context"
	"testing"
	"time"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingFilter(f shared.Filter) bool {
	return f.Filters["method"] == "GATEWAY" && f.Filters["status"] == "PENDING" && f.OrderDir == "asc"
}

func TestReconciler_ReconcilePending(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeded intent completes payment and pays order", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := f.storedPayment(t, payment.MethodGateway)
		p.CreatedAt = time.Now().Add(-time.Hour)
		f.payments.On("FindAll", ctx, mock.MatchedBy(pendingFilter)).Return([]payment.Payment{*p}, int64(1), nil)
		f.gateway.On("GetIntentStatus", ctx, "pi_123").Return(payment.IntentSucceeded, nil)
		f.payments.On("Save", ctx, p).Return(nil)
		f.orders.On("Save", ctx, f.order).Return(nil)

		r := NewReconciler(f.cfg)
		r.SetEventPublisher(f.publisher)
		res, err := r.ReconcilePending(ctx, 15*time.Minute, 50)

		require.NoError(t, err)
		assert.Equal(t, &ReconcileResult{Checked: 1, Completed: 1}, res)
		assert.Equal(t, payment.StatusCompleted, p.Status)
		assert.Equal(t, order.StatusPaid, f.order.Status)
	})

	t.Run("canceled intent fails payment and leaves order pending", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := f.storedPayment(t, payment.MethodGateway)
		p.CreatedAt = time.Now().Add(-time.Hour)
		f.payments.On("FindAll", ctx, mock.Anything).Return([]payment.Payment{*p}, int64(1), nil)
		f.gateway.On("GetIntentStatus", ctx, "pi_123").Return(payment.IntentCanceled, nil)
		f.payments.On("Save", ctx, p).Return(nil)

		res, err := NewReconciler(f.cfg).ReconcilePending(ctx, 15*time.Minute, 50)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, payment.StatusFailed, p.Status)
		assert.Equal(t, order.StatusPending, f.order.Status)
		f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("open and recent payments are left alone", func(t *testing.T) {
		f := newPaymentFixture(t)
		old := f.storedPayment(t, payment.MethodGateway)
		old.CreatedAt = time.Now().Add(-2 * time.Hour)
		recent := f.storedPayment(t, payment.MethodGateway)
		f.payments.On("FindAll", ctx, mock.Anything).Return([]payment.Payment{*old, *recent}, int64(2), nil)
		f.gateway.On("GetIntentStatus", ctx, "pi_123").Return(payment.IntentOpen, nil).Once()

		res, err := NewReconciler(f.cfg).ReconcilePending(ctx, 15*time.Minute, 50)

		require.NoError(t, err)
		assert.Equal(t, &ReconcileResult{Checked: 1}, res)
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("gateway outage is counted and skipped", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := f.storedPayment(t, payment.MethodGateway)
		p.CreatedAt = time.Now().Add(-time.Hour)
		f.payments.On("FindAll", ctx, mock.Anything).Return([]payment.Payment{*p}, int64(1), nil)
		f.gateway.On("GetIntentStatus", ctx, "pi_123").Return(payment.IntentStatus(""), shared.ErrUpstreamUnavailable)

		res, err := NewReconciler(f.cfg).ReconcilePending(ctx, 15*time.Minute, 50)

		require.NoError(t, err)
		assert.Equal(t, &ReconcileResult{Checked: 1, Errors: 1}, res)
		assert.Equal(t, payment.StatusPending, p.Status)
	})
}
