package seed

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poloCatalog = `
operator:
  email: ops@boutique.pe
  password: Operator123
warehouses:
  - code: LIMA
    name: Lima Central
  - code: CUSCO
    name: Cusco
attributes:
  - name: Color
    values: [Negro, Blanco]
  - name: Talla
    values: [S, M, L]
products:
  - name: Polo Basico
    category: Polos
    gender: UNISEX
    attributes: [Color, Talla]
    variants:
      - price: "59.90"
        values: {Color: Negro, Talla: M}
        stock: {LIMA: 1, CUSCO: 4}
      - sku: POLO-BL-L
        price: "59.90"
        sale_price: "49.90"
        values: {Color: Blanco, Talla: L}
        stock: {LIMA: 0}
`

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(poloCatalog))
	require.NoError(t, err)

	require.NotNil(t, c.Operator)
	assert.Equal(t, "ops@boutique.pe", c.Operator.Email)
	assert.Len(t, c.Warehouses, 2)
	require.Len(t, c.Products, 1)

	p := c.Products[0]
	assert.Equal(t, []string{"Color", "Talla"}, p.Attributes)
	require.Len(t, p.Variants, 2)
	assert.True(t, decimal.RequireFromString("59.90").Equal(p.Variants[0].Price))
	assert.Nil(t, p.Variants[0].SalePrice)
	assert.Equal(t, 4, p.Variants[0].Stock["CUSCO"])
	require.NotNil(t, p.Variants[1].SalePrice)
	assert.True(t, decimal.RequireFromString("49.90").Equal(*p.Variants[1].SalePrice))
	assert.Equal(t, "POLO-BL-L", p.Variants[1].SKU)
}

func TestLoadCatalog_UnknownField(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("warehouses:\n  - code: LIMA\n    priority: 1\n"))
	assert.Error(t, err)
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr string
	}{
		{
			name:    "unknown attribute",
			mutate:  func(c *Catalog) { c.Products[0].Attributes = []string{"Color", "Material"} },
			wantErr: `unknown attribute "Material"`,
		},
		{
			name:    "undefined value",
			mutate:  func(c *Catalog) { c.Products[0].Variants[0].Values["Talla"] = "XXL" },
			wantErr: `Talla="XXL" is not defined`,
		},
		{
			name:    "missing value",
			mutate:  func(c *Catalog) { delete(c.Products[0].Variants[0].Values, "Talla") },
			wantErr: "expected 2 values, got 1",
		},
		{
			name:    "unknown warehouse",
			mutate:  func(c *Catalog) { c.Products[0].Variants[0].Stock["AREQUIPA"] = 2 },
			wantErr: `unknown warehouse "AREQUIPA"`,
		},
		{
			name:    "negative stock",
			mutate:  func(c *Catalog) { c.Products[0].Variants[0].Stock["LIMA"] = -1 },
			wantErr: "negative stock",
		},
		{
			name:    "zero price",
			mutate:  func(c *Catalog) { c.Products[0].Variants[1].Price = decimal.Zero },
			wantErr: "price must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadCatalog(strings.NewReader(poloCatalog))
			require.NoError(t, err)

			tt.mutate(c)
			err = c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCatalogFile_Sample(t *testing.T) {
	c, err := LoadCatalogFile("testdata/catalog.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Products)
	assert.NotEmpty(t, c.Warehouses)
}
