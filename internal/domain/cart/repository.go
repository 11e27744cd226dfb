package cart

import (
	"context"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines cart persistence
type Repository interface {
	// FindByOwner returns the cart of a user or session, or shared.ErrNotFound
	FindByOwner(ctx context.Context, owner shared.CartOwner) (*Cart, error)

	// FindByID finds a cart by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// Save creates or replaces the cart and its lines
	Save(ctx context.Context, c *Cart) error

	// Delete removes a cart and its lines
	Delete(ctx context.Context, id uuid.UUID) error
}
