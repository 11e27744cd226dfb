package event

import (
	"context"

	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ActivityLog writes one structured line per order, payment and sign-up
// event. Operators follow the proof review queue and settlement from it.
type ActivityLog struct {
	logger *zap.Logger
}

// NewActivityLog creates the handler
func NewActivityLog(logger *zap.Logger) *ActivityLog {
	return &ActivityLog{logger: logger.Named("activity")}
}

// EventTypes implements shared.EventHandler
func (a *ActivityLog) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		order.EventTypeOrderCreated,
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderCancelled,
		payment.EventTypePaymentCreated,
		payment.EventTypePaymentProofAttached,
		payment.EventTypePaymentCompleted,
		payment.EventTypePaymentFailed,
	}
}

// Handle implements shared.EventHandler
func (a *ActivityLog) Handle(ctx context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", ev.EventID().String()),
		zap.String("event_type", ev.EventType()),
	}
	if id := logger.GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	switch e := ev.(type) {
	case *identity.UserRegisteredEvent:
		fields = append(fields, zap.String("user_id", e.UserID.String()))
	case *order.OrderCreatedEvent:
		fields = append(fields,
			zap.String("order_number", e.Number),
			zap.String("user_id", e.UserID.String()),
			zap.String("total", e.Total.StringFixed(2)),
			zap.Int("lines", len(e.Lines)))
	case *order.OrderStatusChangedEvent:
		fields = append(fields,
			zap.String("order_number", e.Number),
			zap.String("from", string(e.From)),
			zap.String("to", string(e.To)))
	case *order.OrderCancelledEvent:
		fields = append(fields,
			zap.String("order_number", e.Number),
			zap.String("reason", e.Reason))
	case *payment.PaymentCreatedEvent:
		fields = append(fields,
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("order_id", e.OrderID.String()),
			zap.String("method", string(e.Method)),
			zap.String("amount", e.Amount.StringFixed(2)))
	case *payment.PaymentProofAttachedEvent:
		fields = append(fields,
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("order_id", e.OrderID.String()))
	case *payment.PaymentCompletedEvent:
		fields = append(fields,
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("order_id", e.OrderID.String()),
			zap.String("method", string(e.Method)),
			zap.String("amount", e.Amount.StringFixed(2)))
	case *payment.PaymentFailedEvent:
		fields = append(fields,
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("order_id", e.OrderID.String()),
			zap.String("method", string(e.Method)))
	default:
		fields = append(fields, zap.String("aggregate_id", ev.AggregateID().String()))
	}

	logger.WithTraceContext(ctx, a.logger).Info("Domain event", fields...)
	return nil
}
