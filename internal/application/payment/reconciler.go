package payment

import (
	"context"
	"time"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReconcileResult summarises one sweep over pending gateway payments
type ReconcileResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
}

// Reconciler asks the gateway about PENDING gateway payments whose webhook
// never arrived. It only applies what the gateway reports; a payment is
// never failed for being old.
type Reconciler struct {
	payments   payment.Repository
	gateway    payment.Gateway
	settlement *settlement
	logger     *zap.Logger
}

// NewReconciler creates a Reconciler
func NewReconciler(cfg ServiceConfig) *Reconciler {
	return &Reconciler{
		payments:   cfg.Payments,
		gateway:    cfg.Gateway,
		settlement: newSettlement(cfg),
		logger:     cfg.Logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (r *Reconciler) SetEventPublisher(publisher shared.EventPublisher) {
	r.settlement.publisher = publisher
}

// ReconcilePending checks up to limit gateway payments that have been
// PENDING for at least minAge, oldest first
func (r *Reconciler) ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (*ReconcileResult, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = limit
	filter.OrderDir = "asc"
	filter.Filters["method"] = string(payment.MethodGateway)
	filter.Filters["status"] = string(payment.StatusPending)

	pending, _, err := r.payments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	res := &ReconcileResult{}
	cutoff := time.Now().Add(-minAge)
	for i := range pending {
		p := &pending[i]
		if p.CreatedAt.After(cutoff) || p.GatewayRef == "" {
			continue
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Checked++

		status, err := r.gateway.GetIntentStatus(ctx, p.GatewayRef)
		if err != nil {
			res.Errors++
			r.logger.Warn("Failed to read payment intent during reconciliation",
				zap.String("payment_id", p.ID.String()),
				zap.String("intent_id", p.GatewayRef),
				zap.Error(err))
			continue
		}

		var apply func(*payment.Payment) error
		opts := settleOptions{skipSettled: true}
		switch status {
		case payment.IntentSucceeded:
			apply = func(p *payment.Payment) error { return p.MarkCompleted() }
			opts.markPaid = true
		case payment.IntentFailed, payment.IntentCanceled:
			reason := "payment " + string(status) + " at gateway"
			apply = func(p *payment.Payment) error { return p.MarkFailed(reason) }
		default:
			continue
		}

		out, err := r.settlement.settle(ctx, p.ID, opts, apply)
		if err != nil {
			res.Errors++
			r.logger.Error("Failed to settle payment during reconciliation",
				zap.String("payment_id", p.ID.String()),
				zap.Error(err))
			continue
		}
		if !out.changed {
			continue
		}
		if out.payment.Status == payment.StatusCompleted {
			res.Completed++
		} else {
			res.Failed++
		}
	}

	if res.Checked > 0 {
		r.logger.Info("Gateway reconciliation finished",
			zap.Int("checked", res.Checked),
			zap.Int("completed", res.Completed),
			zap.Int("failed", res.Failed),
			zap.Int("errors", res.Errors))
	}
	return res, nil
}
