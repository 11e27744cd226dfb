package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail matches case-insensitively
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *User) error
}

// AddressRepository defines address book persistence
type AddressRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Save(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearDefault unsets IsDefault on every address of the kind except keepID
	ClearDefault(ctx context.Context, userID uuid.UUID, kind AddressKind, keepID uuid.UUID) error
}
