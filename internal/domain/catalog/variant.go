package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant is one purchasable SKU of a product, defined by exactly one value
// per attribute of its combination.
type Variant struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	SKU        string
	Price      decimal.Decimal
	SalePrice  *decimal.Decimal
	StockTotal int // sum over warehouses, maintained by the inventory side
	IsActive   bool
	Values     []AttributeValue
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// filled by FindVariant/FindVariants, not persisted on the variant
	ProductName   string
	ProductActive bool
}

// VariantInput carries admin-supplied variant fields
type VariantInput struct {
	SKU       string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	IsActive  bool
	Values    []AttributeValue
}

func validatePricing(price decimal.Decimal, sale *decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	if sale != nil {
		if sale.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
		}
		if sale.GreaterThan(price) {
			return shared.NewDomainError("INVALID_PRICE", "Sale price cannot exceed base price")
		}
	}
	return nil
}

// UnitPrice is the price a customer pays: the sale price when present, else the base price
func (v *Variant) UnitPrice() decimal.Decimal {
	if v.SalePrice != nil {
		return *v.SalePrice
	}
	return v.Price
}

// OnSale reports whether a sale price applies
func (v *Variant) OnSale() bool {
	return v.SalePrice != nil && v.SalePrice.LessThan(v.Price)
}

// ValueFor returns the variant's value for an attribute name
func (v *Variant) ValueFor(attributeName string) (AttributeValue, bool) {
	for _, av := range v.Values {
		if strings.EqualFold(av.AttributeName, attributeName) {
			return av, true
		}
	}
	return AttributeValue{}, false
}

// Label renders the combination, e.g. "Talla: M / Color: Negro"
func (v *Variant) Label() string {
	parts := make([]string, 0, len(v.Values))
	for _, av := range v.Values {
		parts = append(parts, av.AttributeName+": "+av.Value)
	}
	return strings.Join(parts, " / ")
}

// combinationKey identifies the variant's value set independent of order
func (v *Variant) combinationKey() string {
	ids := make([]string, 0, len(v.Values))
	for _, av := range v.Values {
		ids = append(ids, av.ID.String())
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// UpdatePricing changes base and sale price
func (v *Variant) UpdatePricing(price decimal.Decimal, sale *decimal.Decimal) error {
	if err := validatePricing(price, sale); err != nil {
		return err
	}
	v.Price = price
	v.SalePrice = sale
	v.UpdatedAt = time.Now()
	return nil
}

// SetActive toggles availability
func (v *Variant) SetActive(active bool) {
	v.IsActive = active
	v.UpdatedAt = time.Now()
}

// Sellable reports whether the variant and its product are both active
func (v *Variant) Sellable() bool {
	return v.IsActive && v.ProductActive
}

// CanFulfill reports whether qty units can be sold right now
func (v *Variant) CanFulfill(qty int) bool {
	return v.IsActive && v.StockTotal >= qty
}
