package order

import (
	"context"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines order persistence
type Repository interface {
	// FindByID finds an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate loads the order with a row lock inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser lists a customer's orders, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindAll lists orders. Filters: "status", "user_id".
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)

	// Save creates the order or updates its status fields. Lines are
	// written once on create.
	Save(ctx context.Context, o *Order) error
}
