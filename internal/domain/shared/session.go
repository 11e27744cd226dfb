package shared

import (
	"github.com/google/uuid"
)

// Session identifies the caller of an application operation. It is built per
// request from the access token or the anonymous session key and handed to
// every service call; nothing in the core keeps a current user or cart.
type Session struct {
	UserID     *uuid.UUID
	SessionKey string
	Email      string
	IsStaff    bool
}

// NewUserSession creates a session for a signed-in customer or operator.
// An anonymous session key may be carried along so its cart can be merged.
func NewUserSession(userID uuid.UUID, email string, isStaff bool, sessionKey string) Session {
	return Session{
		UserID:     &userID,
		Email:      email,
		IsStaff:    isStaff,
		SessionKey: sessionKey,
	}
}

// NewAnonymousSession creates a session for a visitor identified only by a session key
func NewAnonymousSession(sessionKey string) Session {
	return Session{SessionKey: sessionKey}
}

// IsAuthenticated reports whether the session belongs to a signed-in user
func (s Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != uuid.Nil
}

// IsOperator reports whether the session may perform backoffice actions
func (s Session) IsOperator() bool {
	return s.IsAuthenticated() && s.IsStaff
}

// IsEmpty reports whether the session carries neither a user nor a session key
func (s Session) IsEmpty() bool {
	return !s.IsAuthenticated() && s.SessionKey == ""
}

// RequireUser returns the user ID or ErrUnauthorized
func (s Session) RequireUser() (uuid.UUID, error) {
	if !s.IsAuthenticated() {
		return uuid.Nil, ErrUnauthorized
	}
	return *s.UserID, nil
}

// RequireOperator returns the operator's user ID or an authorization error
func (s Session) RequireOperator() (uuid.UUID, error) {
	id, err := s.RequireUser()
	if err != nil {
		return uuid.Nil, err
	}
	if !s.IsStaff {
		return uuid.Nil, ErrForbidden
	}
	return id, nil
}

// CartOwner identifies whose cart a session addresses: the user when signed
// in, otherwise the anonymous session key. Exactly one field is set.
type CartOwner struct {
	UserID     *uuid.UUID
	SessionKey string
}

// CartOwner returns the cart owner for this session
func (s Session) CartOwner() (CartOwner, error) {
	if s.IsAuthenticated() {
		id := *s.UserID
		return CartOwner{UserID: &id}, nil
	}
	if s.SessionKey == "" {
		return CartOwner{}, ErrUnauthorized
	}
	return CartOwner{SessionKey: s.SessionKey}, nil
}
