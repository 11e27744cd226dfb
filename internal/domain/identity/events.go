package identity

import (
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeUser = "User"

const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is published when a customer signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Email:           u.Email,
	}
}
