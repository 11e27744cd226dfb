package payment

import (
	"context"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines payment persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForUpdate loads the payment with a row lock inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByGatewayRef finds the payment bound to a gateway intent
	FindByGatewayRef(ctx context.Context, ref string) (*Payment, error)

	// FindByOrder lists every attempt for an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)

	// FindByUser lists payments of orders placed by a user
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Payment, int64, error)

	// FindAll lists payments. Filters: "order_id", "method", "status".
	FindAll(ctx context.Context, filter shared.Filter) ([]Payment, int64, error)

	Save(ctx context.Context, p *Payment) error
}

// EnsureNoBlockingPayment returns DUPLICATE_PAYMENT when any existing attempt
// for the order is PENDING or COMPLETED.
func EnsureNoBlockingPayment(existing []Payment) error {
	for i := range existing {
		if existing[i].Blocks() {
			return shared.ErrDuplicatePayment
		}
	}
	return nil
}
