package catalog

import (
	"strings"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Attribute is a product dimension such as "Talla" or "Color"
type Attribute struct {
	shared.BaseEntity
	Name   string
	Values []AttributeValue
}

// AttributeValue is one literal value of an Attribute, e.g. "M" or "Negro".
// AttributeName is denormalized so variants can be matched by name.
type AttributeValue struct {
	ID            uuid.UUID
	AttributeID   uuid.UUID
	AttributeName string
	Value         string
}

// NewAttribute creates a new attribute
func NewAttribute(name string) (*Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ATTRIBUTE_NAME", "Attribute name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_ATTRIBUTE_NAME", "Attribute name cannot exceed 100 characters")
	}
	return &Attribute{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Values:     make([]AttributeValue, 0),
	}, nil
}

// AddValue adds a literal value; (attribute, value) pairs are unique
func (a *Attribute) AddValue(value string) (*AttributeValue, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, shared.NewDomainError("INVALID_ATTRIBUTE_VALUE", "Attribute value cannot be empty")
	}
	for _, v := range a.Values {
		if strings.EqualFold(v.Value, value) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Value already exists for attribute "+a.Name)
		}
	}
	av := AttributeValue{
		ID:            uuid.New(),
		AttributeID:   a.ID,
		AttributeName: a.Name,
		Value:         value,
	}
	a.Values = append(a.Values, av)
	a.Touch()
	return &av, nil
}

// FindValue returns the value with the given id
func (a *Attribute) FindValue(id uuid.UUID) (AttributeValue, bool) {
	for _, v := range a.Values {
		if v.ID == id {
			return v, true
		}
	}
	return AttributeValue{}, false
}
