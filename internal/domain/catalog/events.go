package catalog

import (
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated      = "ProductCreated"
	EventTypeProductUpdated      = "ProductUpdated"
	EventTypeVariantAdded        = "VariantAdded"
	EventTypeVariantPriceChanged = "VariantPriceChanged"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
	}
}

// ProductUpdatedEvent is published when descriptive fields change
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		IsActive:        p.IsActive,
	}
}

// VariantAddedEvent is published when a variant joins a product
type VariantAddedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	SKU       string    `json:"sku"`
}

// NewVariantAddedEvent creates a new VariantAddedEvent
func NewVariantAddedEvent(p *Product, v *Variant) *VariantAddedEvent {
	return &VariantAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariantAdded, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		VariantID:       v.ID,
		SKU:             v.SKU,
	}
}

// VariantPriceChangedEvent is published when a variant's unit price changes.
// Existing orders keep their snapshotted price.
type VariantPriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	VariantID uuid.UUID       `json:"variant_id"`
	SKU       string          `json:"sku"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

// NewVariantPriceChangedEvent creates a new VariantPriceChangedEvent
func NewVariantPriceChangedEvent(p *Product, v *Variant, oldPrice decimal.Decimal) *VariantPriceChangedEvent {
	return &VariantPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariantPriceChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		VariantID:       v.ID,
		SKU:             v.SKU,
		OldPrice:        oldPrice,
		NewPrice:        v.UnitPrice(),
	}
}
