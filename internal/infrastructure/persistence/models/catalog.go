package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttributeModel is the persistence model for a catalog attribute
type AttributeModel struct {
	Row
	Name   string                `gorm:"type:varchar(100);not null;uniqueIndex"`
	Values []AttributeValueModel `gorm:"foreignKey:AttributeID;references:ID"`
}

// TableName returns the table name for GORM
func (AttributeModel) TableName() string {
	return "attributes"
}

// ToDomain converts the model to a domain Attribute
func (m *AttributeModel) ToDomain() *catalog.Attribute {
	a := &catalog.Attribute{
		BaseEntity: m.Row.entity(),
		Name:       m.Name,
		Values:     make([]catalog.AttributeValue, len(m.Values)),
	}
	for i := range m.Values {
		a.Values[i] = m.Values[i].ToDomain(m.Name)
	}
	return a
}

// AttributeModelFromDomain converts a domain Attribute, values included
func AttributeModelFromDomain(a *catalog.Attribute) *AttributeModel {
	m := &AttributeModel{Name: a.Name, Values: make([]AttributeValueModel, len(a.Values))}
	m.setEntity(a.BaseEntity)
	for i, v := range a.Values {
		m.Values[i] = AttributeValueModel{ID: v.ID, AttributeID: a.ID, Value: v.Value}
	}
	return m
}

// AttributeValueModel is one literal value of an attribute
type AttributeValueModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttributeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attribute_value,priority:1"`
	Value       string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_attribute_value,priority:2"`
}

// TableName returns the table name for GORM
func (AttributeValueModel) TableName() string {
	return "attribute_values"
}

// ToDomain converts the model, denormalizing the attribute name
func (m *AttributeValueModel) ToDomain(attributeName string) catalog.AttributeValue {
	return catalog.AttributeValue{
		ID:            m.ID,
		AttributeID:   m.AttributeID,
		AttributeName: attributeName,
		Value:         m.Value,
	}
}

// ProductModel is the persistence model for the Product aggregate root.
// Variants, images and the attribute set are loaded by the repository.
type ProductModel struct {
	VersionedRow
	Name        string `gorm:"type:varchar(200);not null"`
	Slug        string `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"type:varchar(100);index"`
	Gender      string `gorm:"type:varchar(10);not null;default:'UNISEX';index"`
	IsActive    bool   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the product row. Collections start empty.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		Category:          m.Category,
		Gender:            catalog.Gender(m.Gender),
		IsActive:          m.IsActive,
		Attributes:        make([]catalog.Attribute, 0),
		Variants:          make([]catalog.Variant, 0),
		Images:            make([]catalog.ProductImage, 0),
	}
}

// ProductModelFromDomain converts the product row of a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Gender:      string(p.Gender),
		IsActive:    p.IsActive,
	}
	m.setAggregate(p.BaseAggregateRoot)
	return m
}

// ProductAttributeModel links a product to an attribute of its set
type ProductAttributeModel struct {
	ProductID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttributeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position    int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductAttributeModel) TableName() string {
	return "product_attributes"
}

// VariantModel is the persistence model for a product variant.
// StockTotal is written by the inventory repository only.
type VariantModel struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	SKU        string           `gorm:"column:sku;type:varchar(64);not null;uniqueIndex"`
	Price      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	SalePrice  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	StockTotal int              `gorm:"not null;default:0"`
	IsActive   bool             `gorm:"not null"`
	CreatedAt  time.Time        `gorm:"not null"`
	UpdatedAt  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "variants"
}

// ToDomain converts the variant row. Values are attached by the repository.
func (m *VariantModel) ToDomain() catalog.Variant {
	return catalog.Variant{
		ID:         m.ID,
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Price:      m.Price,
		SalePrice:  m.SalePrice,
		StockTotal: m.StockTotal,
		IsActive:   m.IsActive,
		Values:     make([]catalog.AttributeValue, 0),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// VariantModelFromDomain converts a domain Variant
func VariantModelFromDomain(v *catalog.Variant) *VariantModel {
	return &VariantModel{
		ID:         v.ID,
		ProductID:  v.ProductID,
		SKU:        v.SKU,
		Price:      v.Price,
		SalePrice:  v.SalePrice,
		StockTotal: v.StockTotal,
		IsActive:   v.IsActive,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

// VariantValueModel links a variant to one attribute value
type VariantValueModel struct {
	VariantID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttributeValueID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (VariantValueModel) TableName() string {
	return "variant_values"
}

// ProductImageModel is one gallery image
type ProductImageModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID `gorm:"type:uuid;index"`
	URL       string     `gorm:"column:url;type:varchar(500);not null"`
	AltText   string     `gorm:"type:varchar(200)"`
	IsPrimary bool       `gorm:"not null;default:false"`
	Position  int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the image row
func (m *ProductImageModel) ToDomain() catalog.ProductImage {
	return catalog.ProductImage{
		ID:        m.ID,
		ProductID: m.ProductID,
		VariantID: m.VariantID,
		URL:       m.URL,
		AltText:   m.AltText,
		IsPrimary: m.IsPrimary,
		Position:  m.Position,
	}
}

// ProductImageModelFromDomain converts a domain ProductImage
func ProductImageModelFromDomain(img *catalog.ProductImage) *ProductImageModel {
	return &ProductImageModel{
		ID:        img.ID,
		ProductID: img.ProductID,
		VariantID: img.VariantID,
		URL:       img.URL,
		AltText:   img.AltText,
		IsPrimary: img.IsPrimary,
		Position:  img.Position,
	}
}
