// Package seed loads demo data through the application services so that
// seeded rows obey the same rules as rows created over the API.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML definition of a demo catalog
type Catalog struct {
	Operator   *Operator   `yaml:"operator"`
	Warehouses []Warehouse `yaml:"warehouses"`
	Attributes []Attribute `yaml:"attributes"`
	Products   []Product   `yaml:"products"`
}

// Operator is the backoffice account that owns the seeded catalog
type Operator struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Warehouse is a stock location. Checkout drains warehouses in code order.
type Warehouse struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// Attribute is a variant axis with its literal values
type Attribute struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Product is a product with its variants
type Product struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	Gender      string    `yaml:"gender"`
	Attributes  []string  `yaml:"attributes"`
	Variants    []Variant `yaml:"variants"`
}

// Variant selects one value per product attribute, e.g.
// {Color: Negro, Talla: M}. Stock is keyed by warehouse code.
type Variant struct {
	SKU       string            `yaml:"sku"`
	Price     decimal.Decimal   `yaml:"price"`
	SalePrice *decimal.Decimal  `yaml:"sale_price"`
	Values    map[string]string `yaml:"values"`
	Stock     map[string]int    `yaml:"stock"`
}

// LoadCatalogFile reads a catalog definition from disk
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes and validates a catalog definition
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross references: every product attribute exists, every
// variant picks a known value for each product attribute and stocks only
// known warehouses.
func (c *Catalog) Validate() error {
	values := make(map[string]map[string]bool, len(c.Attributes))
	for _, a := range c.Attributes {
		if strings.TrimSpace(a.Name) == "" {
			return errors.New("attribute without name")
		}
		set := make(map[string]bool, len(a.Values))
		for _, v := range a.Values {
			set[v] = true
		}
		values[a.Name] = set
	}
	warehouses := make(map[string]bool, len(c.Warehouses))
	for _, w := range c.Warehouses {
		warehouses[w.Code] = true
	}

	var errs []error
	for _, p := range c.Products {
		for _, name := range p.Attributes {
			if _, ok := values[name]; !ok {
				errs = append(errs, fmt.Errorf("product %q: unknown attribute %q", p.Name, name))
			}
		}
		for i, v := range p.Variants {
			if !v.Price.IsPositive() {
				errs = append(errs, fmt.Errorf("product %q variant %d: price must be positive", p.Name, i+1))
			}
			if len(v.Values) != len(p.Attributes) {
				errs = append(errs, fmt.Errorf("product %q variant %d: expected %d values, got %d",
					p.Name, i+1, len(p.Attributes), len(v.Values)))
			}
			for attr, val := range v.Values {
				if !values[attr][val] {
					errs = append(errs, fmt.Errorf("product %q variant %d: %s=%q is not defined", p.Name, i+1, attr, val))
				}
			}
			for code, qty := range v.Stock {
				if !warehouses[code] {
					errs = append(errs, fmt.Errorf("product %q variant %d: unknown warehouse %q", p.Name, i+1, code))
				}
				if qty < 0 {
					errs = append(errs, fmt.Errorf("product %q variant %d: negative stock in %q", p.Name, i+1, code))
				}
			}
		}
	}
	return errors.Join(errs...)
}
