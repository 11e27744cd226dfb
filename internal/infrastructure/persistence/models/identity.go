package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// UserModel is the persistence model for the User aggregate root
type UserModel struct {
	VersionedRow
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	FirstName    string `gorm:"type:varchar(100)"`
	LastName     string `gorm:"type:varchar(100)"`
	Phone        string `gorm:"type:varchar(30)"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	IsStaff      bool   `gorm:"not null;default:false"`
	IsActive     bool   `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.aggregate(),
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		PasswordHash:      m.PasswordHash,
		IsStaff:           m.IsStaff,
		IsActive:          m.IsActive,
		LastLoginAt:       m.LastLoginAt,
	}
}

// UserModelFromDomain converts a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		IsStaff:      u.IsStaff,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
	}
	m.setAggregate(u.BaseAggregateRoot)
	return m
}

// AddressModel is an address book entry
type AddressModel struct {
	Row
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind       string    `gorm:"type:varchar(10);not null;default:'SHIPPING'"`
	FullName   string    `gorm:"type:varchar(150);not null"`
	Street     string    `gorm:"type:varchar(255);not null"`
	Apartment  string    `gorm:"type:varchar(100)"`
	City       string    `gorm:"type:varchar(100);not null"`
	Region     string    `gorm:"type:varchar(100)"`
	Country    string    `gorm:"type:varchar(100);not null"`
	PostalCode string    `gorm:"type:varchar(20)"`
	Phone      string    `gorm:"type:varchar(30)"`
	IsDefault  bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the model to a domain Address
func (m *AddressModel) ToDomain() *identity.Address {
	return &identity.Address{
		BaseEntity: m.Row.entity(),
		UserID:     m.UserID,
		Kind:       identity.AddressKind(m.Kind),
		FullName:   m.FullName,
		Street:     m.Street,
		Apartment:  m.Apartment,
		City:       m.City,
		Region:     m.Region,
		Country:    m.Country,
		PostalCode: m.PostalCode,
		Phone:      m.Phone,
		IsDefault:  m.IsDefault,
	}
}

// AddressModelFromDomain converts a domain Address
func AddressModelFromDomain(a *identity.Address) *AddressModel {
	m := &AddressModel{
		UserID:     a.UserID,
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
	m.setEntity(a.BaseEntity)
	return m
}
