package payment

import (
	"context"
	"errors"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// settlement moves a payment to a terminal state and applies the order
// effect in the same transaction. Completion marks the order PAID; failure
// leaves the order untouched.
type settlement struct {
	txScope   common.TransactionScope
	publisher shared.EventPublisher
	metrics   common.Metrics
	logger    *zap.Logger
}

type settleOptions struct {
	// skipSettled turns a second settlement of an already terminal payment
	// into a no-op instead of an error. Gateway signals arrive more than once.
	skipSettled bool
	markPaid    bool
	// requirePayable refuses the change when the order can no longer be
	// paid, for example after it was cancelled.
	requirePayable bool
}

type settleResult struct {
	payment *payment.Payment
	order   *order.Order
	changed bool
}

func (s *settlement) settle(ctx context.Context, paymentID uuid.UUID, opts settleOptions, apply func(*payment.Payment) error) (*settleResult, error) {
	res := &settleResult{}
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		p, err := repos.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Payment")
			}
			return err
		}
		res.payment = p
		if opts.skipSettled && p.Status.IsTerminal() {
			return nil
		}
		if err := apply(p); err != nil {
			return err
		}
		var o *order.Order
		if opts.requirePayable {
			if o, err = repos.Orders().FindByIDForUpdate(ctx, p.OrderID); err != nil {
				return err
			}
			if !o.IsPayable() {
				return notPayable(o)
			}
		}
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		res.changed = true

		if !opts.markPaid || p.Status != payment.StatusCompleted {
			return nil
		}
		if o == nil {
			if o, err = repos.Orders().FindByIDForUpdate(ctx, p.OrderID); err != nil {
				return err
			}
		}
		res.order = o
		if !o.IsPayable() {
			return nil
		}
		if err := o.MarkPaid(); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	if !res.changed {
		return res, nil
	}

	common.PublishEvents(ctx, s.publisher, s.logger, res.payment)
	if res.order != nil {
		common.PublishEvents(ctx, s.publisher, s.logger, res.order)
		if res.order.Status != order.StatusPaid {
			s.logger.Warn("Payment completed for an order that cannot be marked paid",
				zap.String("payment_id", res.payment.ID.String()),
				zap.String("order_id", res.order.ID.String()),
				zap.String("order_status", string(res.order.Status)))
		}
	}
	s.metrics.PaymentSettled(ctx, string(res.payment.Method), string(res.payment.Status))
	s.logger.Info("Payment settled",
		zap.String("payment_id", res.payment.ID.String()),
		zap.String("order_id", res.payment.OrderID.String()),
		zap.String("method", string(res.payment.Method)),
		zap.String("status", string(res.payment.Status)))
	return res, nil
}

func upstreamError(err error) error {
	if errors.Is(err, shared.ErrUpstreamUnavailable) {
		return err
	}
	return shared.ErrUpstreamUnavailable
}

func notPayable(o *order.Order) error {
	return shared.NewDomainError(shared.CodeInvalidStateTransition,
		"Order "+o.Number+" is "+string(o.Status)+" and cannot take a payment")
}

// ensurePayable checks that o may take a new payment. An open or completed
// attempt wins over the order state, so a paid order reports a duplicate.
func ensurePayable(o *order.Order, existing []payment.Payment) error {
	if err := payment.EnsureNoBlockingPayment(existing); err != nil {
		return err
	}
	if !o.IsPayable() {
		return notPayable(o)
	}
	return nil
}

// registerPayment re-checks the order and the one-open-payment rule under
// the order's row lock, then persists p.
func registerPayment(ctx context.Context, txScope common.TransactionScope, orderID uuid.UUID, p *payment.Payment) error {
	return txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		o, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		existing, err := repos.Payments().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := ensurePayable(o, existing); err != nil {
			return err
		}
		return repos.Payments().Save(ctx, p)
	})
}
