package identity

import (
	"time"

	"github.com/boutique/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// RegisterRequest signs up a customer
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=200"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// LoginRequest signs in with email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest rotates a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput carries the tokens to revoke. AccessJTI and AccessTTL come
// from the validated access token; the refresh token is optional.
type LogoutInput struct {
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest changes the caller's profile
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=30"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// AddressRequest creates or replaces an address book entry
type AddressRequest struct {
	Kind       string `json:"kind" binding:"omitempty,oneof=SHIPPING BILLING"`
	FullName   string `json:"full_name" binding:"required,max=150"`
	Street     string `json:"street" binding:"required,max=255"`
	Apartment  string `json:"apartment" binding:"max=100"`
	City       string `json:"city" binding:"required,max=100"`
	Region     string `json:"region" binding:"max=100"`
	Country    string `json:"country" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Phone      string `json:"phone" binding:"max=30"`
	IsDefault  bool   `json:"is_default"`
}

func (r AddressRequest) input() identity.AddressInput {
	return identity.AddressInput{
		Kind:       identity.AddressKind(r.Kind),
		FullName:   r.FullName,
		Street:     r.Street,
		Apartment:  r.Apartment,
		City:       r.City,
		Region:     r.Region,
		Country:    r.Country,
		PostalCode: r.PostalCode,
		Phone:      r.Phone,
		IsDefault:  r.IsDefault,
	}
}

// UserDTO is the signed-in user's profile
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone,omitempty"`
	IsStaff     bool       `json:"is_staff"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToUserDTO converts a user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Phone:       u.Phone,
		IsStaff:     u.IsStaff,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// TokenResult is returned by register, login and refresh
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  *UserDTO  `json:"user,omitempty"`
}

// AddressDTO is an address book entry
type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	FullName   string    `json:"full_name"`
	Street     string    `json:"street"`
	Apartment  string    `json:"apartment,omitempty"`
	City       string    `json:"city"`
	Region     string    `json:"region,omitempty"`
	Country    string    `json:"country"`
	PostalCode string    `json:"postal_code,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsDefault  bool      `json:"is_default"`
}

// ToAddressDTO converts an address
func ToAddressDTO(a *identity.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		Kind:       string(a.Kind),
		FullName:   a.FullName,
		Street:     a.Street,
		Apartment:  a.Apartment,
		City:       a.City,
		Region:     a.Region,
		Country:    a.Country,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
	}
}
