package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingAddressModel is the address snapshot stored inline on an order
type ShippingAddressModel struct {
	FullName   string `gorm:"type:varchar(150);not null"`
	Street     string `gorm:"type:varchar(255);not null"`
	Apartment  string `gorm:"type:varchar(100)"`
	City       string `gorm:"type:varchar(100);not null"`
	Region     string `gorm:"type:varchar(100)"`
	Country    string `gorm:"type:varchar(100);not null"`
	PostalCode string `gorm:"type:varchar(20)"`
	Phone      string `gorm:"type:varchar(30)"`
}

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	VersionedRow
	Number          string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	UserID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	CustomerEmail   string               `gorm:"type:varchar(200);not null"`
	ShippingAddress ShippingAddressModel `gorm:"embedded;embeddedPrefix:ship_"`
	Total           decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Status          string               `gorm:"type:varchar(20);not null;index"`
	CancelReason    string               `gorm:"type:varchar(500)"`
	PaidAt          *time.Time
	CancelledAt     *time.Time
	Lines           []OrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	a := m.ShippingAddress
	o := &order.Order{
		BaseAggregateRoot: m.aggregate(),
		Number:            m.Number,
		UserID:            m.UserID,
		CustomerEmail:     m.CustomerEmail,
		ShippingAddress: order.ShippingAddress{
			FullName:   a.FullName,
			Street:     a.Street,
			Apartment:  a.Apartment,
			City:       a.City,
			Region:     a.Region,
			Country:    a.Country,
			PostalCode: a.PostalCode,
			Phone:      a.Phone,
		},
		Total:        m.Total,
		Status:       order.Status(m.Status),
		CancelReason: m.CancelReason,
		PaidAt:       m.PaidAt,
		CancelledAt:  m.CancelledAt,
		Lines:        make([]order.Line, len(m.Lines)),
	}
	for i, l := range m.Lines {
		o.Lines[i] = l.ToDomain()
	}
	return o
}

// OrderModelFromDomain converts a domain Order with its lines
func OrderModelFromDomain(o *order.Order) *OrderModel {
	a := o.ShippingAddress
	m := &OrderModel{
		Number:        o.Number,
		UserID:        o.UserID,
		CustomerEmail: o.CustomerEmail,
		ShippingAddress: ShippingAddressModel{
			FullName:   a.FullName,
			Street:     a.Street,
			Apartment:  a.Apartment,
			City:       a.City,
			Region:     a.Region,
			Country:    a.Country,
			PostalCode: a.PostalCode,
			Phone:      a.Phone,
		},
		Total:        o.Total,
		Status:       string(o.Status),
		CancelReason: o.CancelReason,
		PaidAt:       o.PaidAt,
		CancelledAt:  o.CancelledAt,
		Lines:        make([]OrderLineModel, len(o.Lines)),
	}
	m.setAggregate(o.BaseAggregateRoot)
	for i, l := range o.Lines {
		m.Lines[i] = OrderLineModel{
			ID:           l.ID,
			OrderID:      o.ID,
			VariantID:    l.VariantID,
			ProductName:  l.ProductName,
			SKU:          l.SKU,
			VariantLabel: l.VariantLabel,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
		}
	}
	return m
}

// OrderLineModel is an immutable order line
type OrderLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	SKU          string          `gorm:"column:sku;type:varchar(64);not null"`
	VariantLabel string          `gorm:"type:varchar(200)"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity     int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the line
func (m *OrderLineModel) ToDomain() order.Line {
	return order.Line{
		ID:           m.ID,
		OrderID:      m.OrderID,
		VariantID:    m.VariantID,
		ProductName:  m.ProductName,
		SKU:          m.SKU,
		VariantLabel: m.VariantLabel,
		UnitPrice:    m.UnitPrice,
		Quantity:     m.Quantity,
	}
}
