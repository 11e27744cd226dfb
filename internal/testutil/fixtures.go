package testutil

import (
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// PoloFixture is a two-attribute product used across tests
type PoloFixture struct {
	Product *catalog.Product
	Talla   *catalog.Attribute
	Color   *catalog.Attribute
	Values  map[string]catalog.AttributeValue // keyed by literal: "S", "M", "Negro", "Blanco"
}

// NewPoloFixture builds "Polo Básico" with variants S/Negro, M/Negro and
// M/Blanco priced 49.90, the last one on sale at 39.90. Every variant
// starts with 10 units.
func NewPoloFixture() *PoloFixture {
	talla, _ := catalog.NewAttribute("Talla")
	color, _ := catalog.NewAttribute("Color")
	values := make(map[string]catalog.AttributeValue)
	for _, v := range []string{"S", "M"} {
		av, _ := talla.AddValue(v)
		values[v] = *av
	}
	for _, v := range []string{"Negro", "Blanco"} {
		av, _ := color.AddValue(v)
		values[v] = *av
	}

	p, _ := catalog.NewProduct("Polo Básico", "Algodón peruano", "polos", catalog.GenderUnisex)
	_ = p.SetAttributes([]catalog.Attribute{*talla, *color})

	price := decimal.RequireFromString("49.90")
	sale := decimal.RequireFromString("39.90")
	combos := []struct {
		sku  string
		vals []string
		sale *decimal.Decimal
	}{
		{"POLO-S-NEGRO", []string{"S", "Negro"}, nil},
		{"POLO-M-NEGRO", []string{"M", "Negro"}, nil},
		{"POLO-M-BLANCO", []string{"M", "Blanco"}, &sale},
	}
	for _, c := range combos {
		avs := make([]catalog.AttributeValue, 0, len(c.vals))
		for _, name := range c.vals {
			avs = append(avs, values[name])
		}
		v, _ := p.AddVariant(catalog.VariantInput{
			SKU:       c.sku,
			Price:     price,
			SalePrice: c.sale,
			IsActive:  true,
			Values:    avs,
		})
		v.StockTotal = 10
	}
	p.ClearDomainEvents()

	return &PoloFixture{Product: p, Talla: talla, Color: color, Values: values}
}

// Variant returns a copy of the variant with the given SKU as the
// repository would load it: product name and state filled in.
func (f *PoloFixture) Variant(sku string) *catalog.Variant {
	for _, v := range f.Product.Variants {
		if v.SKU == sku {
			cp := v
			cp.ProductName = f.Product.Name
			cp.ProductActive = f.Product.IsActive
			return &cp
		}
	}
	return nil
}
