package catalog

import (
	"time"

	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductListItem is a storefront card
type ProductListItem struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Category     string          `json:"category"`
	Gender       string          `json:"gender"`
	PriceFrom    decimal.Decimal `json:"price_from"`
	OnSale       bool            `json:"on_sale"`
	InStock      bool            `json:"in_stock"`
	PrimaryImage string          `json:"primary_image,omitempty"`
}

// AttributeValueDTO is one attribute value
type AttributeValueDTO struct {
	ID          uuid.UUID `json:"id"`
	AttributeID uuid.UUID `json:"attribute_id"`
	Attribute   string    `json:"attribute"`
	Value       string    `json:"value"`
}

// AttributeDTO is an attribute with its values
type AttributeDTO struct {
	ID     uuid.UUID           `json:"id"`
	Name   string              `json:"name"`
	Values []AttributeValueDTO `json:"values"`
}

// VariantDTO is one variant of a product
type VariantDTO struct {
	ID         uuid.UUID           `json:"id"`
	SKU        string              `json:"sku"`
	Price      decimal.Decimal     `json:"price"`
	SalePrice  *decimal.Decimal    `json:"sale_price,omitempty"`
	UnitPrice  decimal.Decimal     `json:"unit_price"`
	StockTotal int                 `json:"stock_total"`
	IsActive   bool                `json:"is_active"`
	Label      string              `json:"label"`
	Values     []AttributeValueDTO `json:"values"`
}

// ImageDTO is one gallery image
type ImageDTO struct {
	ID        uuid.UUID  `json:"id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	URL       string     `json:"url"`
	AltText   string     `json:"alt_text"`
	IsPrimary bool       `json:"is_primary"`
	Position  int        `json:"position"`
}

// ProductDetail is the full product page
type ProductDetail struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Gender      string         `json:"gender"`
	IsActive    bool           `json:"is_active"`
	Attributes  []AttributeDTO `json:"attributes"`
	Variants    []VariantDTO   `json:"variants"`
	Images      []ImageDTO     `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ResolveResult answers a variant selection. Found is false while the
// selection is empty, ambiguous or matches nothing.
type ResolveResult struct {
	Found        bool             `json:"found"`
	VariantID    *uuid.UUID       `json:"variant_id,omitempty"`
	SKU          string           `json:"sku,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	StockTotal   int              `json:"stock_total"`
	PrimaryImage string           `json:"primary_image,omitempty"`
	Candidates   int              `json:"candidates"`
}

// FacetValue is a selectable value of one attribute
type FacetValue struct {
	ID     uuid.UUID `json:"id"`
	Value  string    `json:"value"`
	Swatch string    `json:"swatch,omitempty"`
}

// CreateProductRequest creates a product
type CreateProductRequest struct {
	Name         string      `json:"name" binding:"required,min=1,max=200"`
	Description  string      `json:"description" binding:"max=5000"`
	Category     string      `json:"category" binding:"max=100"`
	Gender       string      `json:"gender" binding:"omitempty,oneof=MEN WOMEN KIDS UNISEX"`
	AttributeIDs []uuid.UUID `json:"attribute_ids"`
}

// UpdateProductRequest updates descriptive fields and the attribute set
type UpdateProductRequest struct {
	Name         string      `json:"name" binding:"required,min=1,max=200"`
	Description  string      `json:"description" binding:"max=5000"`
	Category     string      `json:"category" binding:"max=100"`
	Gender       string      `json:"gender" binding:"omitempty,oneof=MEN WOMEN KIDS UNISEX"`
	IsActive     bool        `json:"is_active"`
	AttributeIDs []uuid.UUID `json:"attribute_ids"`
}

// VariantRequest creates or updates a variant. ValueIDs may be empty on
// update to keep the current combination.
type VariantRequest struct {
	SKU       string           `json:"sku" binding:"omitempty,sku"`
	Price     decimal.Decimal  `json:"price" binding:"required"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	IsActive  *bool            `json:"is_active"`
	ValueIDs  []uuid.UUID      `json:"value_ids"`
}

// CreateAttributeRequest creates an attribute
type CreateAttributeRequest struct {
	Name   string   `json:"name" binding:"required,min=1,max=100"`
	Values []string `json:"values"`
}

// AddAttributeValueRequest adds a literal value to an attribute
type AddAttributeValueRequest struct {
	Value string `json:"value" binding:"required,min=1,max=100"`
}

// AddImageInput describes an uploaded gallery image
type AddImageInput struct {
	VariantID *uuid.UUID
	AltText   string
	IsPrimary bool
}

func toValueDTOs(values []catalog.AttributeValue) []AttributeValueDTO {
	out := make([]AttributeValueDTO, 0, len(values))
	for _, v := range values {
		out = append(out, AttributeValueDTO{
			ID:          v.ID,
			AttributeID: v.AttributeID,
			Attribute:   v.AttributeName,
			Value:       v.Value,
		})
	}
	return out
}

// ToAttributeDTO converts a domain attribute
func ToAttributeDTO(a *catalog.Attribute) AttributeDTO {
	return AttributeDTO{ID: a.ID, Name: a.Name, Values: toValueDTOs(a.Values)}
}

// ToVariantDTO converts a domain variant
func ToVariantDTO(v *catalog.Variant) VariantDTO {
	return VariantDTO{
		ID:         v.ID,
		SKU:        v.SKU,
		Price:      v.Price,
		SalePrice:  v.SalePrice,
		UnitPrice:  v.UnitPrice(),
		StockTotal: v.StockTotal,
		IsActive:   v.IsActive,
		Label:      v.Label(),
		Values:     toValueDTOs(v.Values),
	}
}

// ToProductDetail converts a product. onlyActive hides inactive variants
// from the storefront.
func ToProductDetail(p *catalog.Product, onlyActive bool) ProductDetail {
	d := ProductDetail{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Gender:      string(p.Gender),
		IsActive:    p.IsActive,
		Attributes:  make([]AttributeDTO, 0, len(p.Attributes)),
		Variants:    make([]VariantDTO, 0, len(p.Variants)),
		Images:      make([]ImageDTO, 0, len(p.Images)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i := range p.Attributes {
		d.Attributes = append(d.Attributes, ToAttributeDTO(&p.Attributes[i]))
	}
	for i := range p.Variants {
		if onlyActive && !p.Variants[i].IsActive {
			continue
		}
		d.Variants = append(d.Variants, ToVariantDTO(&p.Variants[i]))
	}
	for _, img := range p.Images {
		d.Images = append(d.Images, ImageDTO{
			ID:        img.ID,
			VariantID: img.VariantID,
			URL:       img.URL,
			AltText:   img.AltText,
			IsPrimary: img.IsPrimary,
			Position:  img.Position,
		})
	}
	return d
}

// ToProductListItem summarizes a product for listings. The starting price
// is the lowest unit price among active variants.
func ToProductListItem(p *catalog.Product) ProductListItem {
	item := ProductListItem{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Category:     p.Category,
		Gender:       string(p.Gender),
		PrimaryImage: p.PrimaryImage(nil),
	}
	first := true
	for _, v := range p.ActiveVariants() {
		if first || v.UnitPrice().LessThan(item.PriceFrom) {
			item.PriceFrom = v.UnitPrice()
			first = false
		}
		if v.OnSale() {
			item.OnSale = true
		}
		if v.StockTotal > 0 {
			item.InStock = true
		}
	}
	return item
}
