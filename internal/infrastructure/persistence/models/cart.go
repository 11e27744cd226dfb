package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for the Cart aggregate root. Exactly
// one of UserID and SessionKey is set.
type CartModel struct {
	VersionedRow
	UserID     *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	SessionKey *string         `gorm:"type:varchar(64);uniqueIndex"`
	Lines      []CartLineModel `gorm:"foreignKey:CartID;references:ID"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the model to a domain Cart
func (m *CartModel) ToDomain() *cart.Cart {
	c := &cart.Cart{
		BaseAggregateRoot: m.aggregate(),
		UserID:            m.UserID,
		SessionKey:        derefString(m.SessionKey),
		Lines:             make([]cart.Line, len(m.Lines)),
	}
	for i, l := range m.Lines {
		c.Lines[i] = l.ToDomain()
	}
	return c
}

// CartModelFromDomain converts a domain Cart with its lines
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{
		UserID:     c.UserID,
		SessionKey: nullableString(c.SessionKey),
		Lines:      make([]CartLineModel, len(c.Lines)),
	}
	m.setAggregate(c.BaseAggregateRoot)
	for i := range c.Lines {
		m.Lines[i] = *CartLineModelFromDomain(c.ID, &c.Lines[i])
	}
	return m
}

// CartLineModel is one cart line
type CartLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CartID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line_variant,priority:1"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line_variant,priority:2"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"column:sku;type:varchar(64);not null"`
	Label       string          `gorm:"type:varchar(200)"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartLineModel) TableName() string {
	return "cart_lines"
}

// ToDomain converts the line
func (m *CartLineModel) ToDomain() cart.Line {
	return cart.Line{
		ID:          m.ID,
		CartID:      m.CartID,
		VariantID:   m.VariantID,
		ProductName: m.ProductName,
		SKU:         m.SKU,
		Label:       m.Label,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		CreatedAt:   m.CreatedAt,
	}
}

// CartLineModelFromDomain converts a domain cart line
func CartLineModelFromDomain(cartID uuid.UUID, l *cart.Line) *CartLineModel {
	return &CartLineModel{
		ID:          l.ID,
		CartID:      cartID,
		VariantID:   l.VariantID,
		ProductName: l.ProductName,
		SKU:         l.SKU,
		Label:       l.Label,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		CreatedAt:   l.CreatedAt,
	}
}
