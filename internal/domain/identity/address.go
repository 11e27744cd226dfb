package identity

import (
	"strings"
	"time"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AddressKind separates shipping from billing entries in the address book
type AddressKind string

const (
	AddressShipping AddressKind = "SHIPPING"
	AddressBilling  AddressKind = "BILLING"
)

// IsValid reports whether k is a known kind
func (k AddressKind) IsValid() bool {
	return k == AddressShipping || k == AddressBilling
}

// Address is a saved entry in a customer's address book
type Address struct {
	shared.BaseEntity
	UserID     uuid.UUID
	Kind       AddressKind
	FullName   string
	Street     string
	Apartment  string
	City       string
	Region     string
	Country    string
	PostalCode string
	Phone      string
	IsDefault  bool
}

// AddressInput carries the editable fields of an address
type AddressInput struct {
	Kind       AddressKind
	FullName   string
	Street     string
	Apartment  string
	City       string
	Region     string
	Country    string
	PostalCode string
	Phone      string
	IsDefault  bool
}

// NewAddress validates and creates an address owned by userID
func NewAddress(userID uuid.UUID, in AddressInput) (*Address, error) {
	a := &Address{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
	}
	if err := a.Update(in); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the editable fields
func (a *Address) Update(in AddressInput) error {
	if in.Kind == "" {
		in.Kind = AddressShipping
	}
	if !in.Kind.IsValid() {
		return shared.NewDomainError("INVALID_ADDRESS", "Address kind must be SHIPPING or BILLING")
	}
	snap := order.ShippingAddress{
		FullName:   strings.TrimSpace(in.FullName),
		Street:     strings.TrimSpace(in.Street),
		Apartment:  strings.TrimSpace(in.Apartment),
		City:       strings.TrimSpace(in.City),
		Region:     strings.TrimSpace(in.Region),
		Country:    strings.TrimSpace(in.Country),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Phone:      strings.TrimSpace(in.Phone),
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	a.Kind = in.Kind
	a.FullName = snap.FullName
	a.Street = snap.Street
	a.Apartment = snap.Apartment
	a.City = snap.City
	a.Region = snap.Region
	a.Country = snap.Country
	a.PostalCode = snap.PostalCode
	a.Phone = snap.Phone
	a.IsDefault = in.IsDefault
	a.UpdatedAt = time.Now()
	return nil
}

// Snapshot copies the address into the value stored on an order
func (a *Address) Snapshot() order.ShippingAddress {
	return order.ShippingAddress{
		FullName:   a.FullName,
		Street:     a.Street,
		Apartment:  a.Apartment,
		City:       a.City,
		Region:     a.Region,
		Country:    a.Country,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
	}
}

// BelongsTo reports whether userID owns the address
func (a *Address) BelongsTo(userID uuid.UUID) bool {
	return a.UserID == userID
}
