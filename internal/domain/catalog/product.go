package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Gender groups storefront listings
type Gender string

const (
	GenderMen    Gender = "MEN"
	GenderWomen  Gender = "WOMEN"
	GenderKids   Gender = "KIDS"
	GenderUnisex Gender = "UNISEX"
)

// IsValid checks the gender value
func (g Gender) IsValid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderKids, GenderUnisex:
		return true
	}
	return false
}

// ProductImage is one image of the gallery. A VariantID scopes the image to a
// single variant; at most one image per scope is primary.
type ProductImage struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	URL       string
	AltText   string
	IsPrimary bool
	Position  int
}

// Product is the catalog aggregate root. It owns its attribute set, variants
// and gallery.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	Description string
	Category    string
	Gender      Gender
	IsActive    bool
	Attributes  []Attribute
	Variants    []Variant
	Images      []ProductImage
}

// NewProduct creates a new product. The slug is derived from the name.
func NewProduct(name, description, category string, gender Gender) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if gender == "" {
		gender = GenderUnisex
	}
	if !gender.IsValid() {
		return nil, shared.NewDomainError("INVALID_GENDER", fmt.Sprintf("Unknown gender %q", gender))
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name must contain letters or digits")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Description:       description,
		Category:          category,
		Gender:            gender,
		IsActive:          true,
		Attributes:        make([]Attribute, 0),
		Variants:          make([]Variant, 0),
		Images:            make([]ProductImage, 0),
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes descriptive fields. Renaming regenerates the slug.
func (p *Product) Update(name, description, category string, gender Gender, active bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if gender != "" && !gender.IsValid() {
		return shared.NewDomainError("INVALID_GENDER", fmt.Sprintf("Unknown gender %q", gender))
	}
	if name != p.Name {
		p.Name = name
		p.Slug = Slugify(name)
	}
	p.Description = description
	p.Category = category
	if gender != "" {
		p.Gender = gender
	}
	p.IsActive = active
	p.UpdatedAt = time.Now()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// SetAttributes replaces the attribute set. Attributes still used by a
// variant cannot be removed.
func (p *Product) SetAttributes(attrs []Attribute) error {
	keep := make(map[uuid.UUID]bool, len(attrs))
	for _, a := range attrs {
		keep[a.ID] = true
	}
	for _, v := range p.Variants {
		for _, av := range v.Values {
			if !keep[av.AttributeID] {
				return shared.NewDomainError("ATTRIBUTE_IN_USE",
					fmt.Sprintf("Attribute %s is used by variant %s", av.AttributeName, v.SKU))
			}
		}
	}
	p.Attributes = attrs
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Product) hasAttribute(id uuid.UUID) bool {
	for _, a := range p.Attributes {
		if a.ID == id {
			return true
		}
	}
	return false
}

// validateCombination checks one variant's value set against the attribute
// set and the other variants. skip excludes the variant being edited.
func (p *Product) validateCombination(values []AttributeValue, skip uuid.UUID) error {
	if len(values) == 0 {
		return shared.NewDomainError("INVALID_COMBINATION", "A variant needs at least one attribute value")
	}
	seen := make(map[uuid.UUID]bool, len(values))
	for _, av := range values {
		if strings.TrimSpace(av.Value) == "" {
			return shared.NewDomainError("INVALID_COMBINATION", "Attribute values cannot be empty")
		}
		if !p.hasAttribute(av.AttributeID) {
			return shared.NewDomainError("INVALID_COMBINATION",
				fmt.Sprintf("Attribute %s is not part of product %s", av.AttributeName, p.Name))
		}
		if seen[av.AttributeID] {
			return shared.NewDomainError("INVALID_COMBINATION",
				fmt.Sprintf("Variant has more than one value for %s", av.AttributeName))
		}
		seen[av.AttributeID] = true
	}

	candidate := Variant{Values: values}
	key := candidate.combinationKey()
	for i := range p.Variants {
		if p.Variants[i].ID == skip {
			continue
		}
		if p.Variants[i].combinationKey() == key {
			return shared.NewDomainError("DUPLICATE_COMBINATION",
				fmt.Sprintf("Variant %s already has this combination", p.Variants[i].SKU))
		}
	}
	return nil
}

// AddVariant adds a variant after checking the combination invariants.
// An empty SKU is generated from the slug.
func (p *Product) AddVariant(in VariantInput) (*Variant, error) {
	if err := validatePricing(in.Price, in.SalePrice); err != nil {
		return nil, err
	}
	if err := p.validateCombination(in.Values, uuid.Nil); err != nil {
		return nil, err
	}
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))
	if sku == "" {
		sku = GenerateSKU(p.Slug)
	}
	for _, v := range p.Variants {
		if v.SKU == sku {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "SKU already exists: "+sku)
		}
	}

	now := time.Now()
	v := Variant{
		ID:        uuid.New(),
		ProductID: p.ID,
		SKU:       sku,
		Price:     in.Price,
		SalePrice: in.SalePrice,
		IsActive:  in.IsActive,
		Values:    append([]AttributeValue(nil), in.Values...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Variants = append(p.Variants, v)
	p.UpdatedAt = now
	p.AddDomainEvent(NewVariantAddedEvent(p, &v))
	return &p.Variants[len(p.Variants)-1], nil
}

// UpdateVariant edits pricing, availability and optionally the combination
func (p *Product) UpdateVariant(id uuid.UUID, in VariantInput) (*Variant, error) {
	v := p.FindVariant(id)
	if v == nil {
		return nil, shared.NotFoundError("Variant")
	}
	if len(in.Values) > 0 {
		if err := p.validateCombination(in.Values, id); err != nil {
			return nil, err
		}
	}
	oldPrice := v.UnitPrice()
	if err := v.UpdatePricing(in.Price, in.SalePrice); err != nil {
		return nil, err
	}
	if len(in.Values) > 0 {
		v.Values = append([]AttributeValue(nil), in.Values...)
	}
	v.SetActive(in.IsActive)
	p.UpdatedAt = time.Now()
	if !oldPrice.Equal(v.UnitPrice()) {
		p.AddDomainEvent(NewVariantPriceChangedEvent(p, v, oldPrice))
	}
	return v, nil
}

// FindVariant returns a pointer into the product's variants, or nil
func (p *Product) FindVariant(id uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// Validate checks every catalog invariant over the whole aggregate
func (p *Product) Validate() error {
	for i := range p.Variants {
		v := &p.Variants[i]
		if err := validatePricing(v.Price, v.SalePrice); err != nil {
			return err
		}
		if err := p.validateCombination(v.Values, v.ID); err != nil {
			return err
		}
	}
	return nil
}

// AddImage appends an image. Marking it primary clears the previous primary
// within the same scope (product-wide or the same variant).
func (p *Product) AddImage(url, alt string, variantID *uuid.UUID, primary bool) (*ProductImage, error) {
	if strings.TrimSpace(url) == "" {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image URL cannot be empty")
	}
	if variantID != nil && p.FindVariant(*variantID) == nil {
		return nil, shared.NotFoundError("Variant")
	}
	if primary {
		p.clearPrimary(variantID)
	}
	img := ProductImage{
		ID:        uuid.New(),
		ProductID: p.ID,
		VariantID: variantID,
		URL:       url,
		AltText:   alt,
		IsPrimary: primary,
		Position:  len(p.Images),
	}
	p.Images = append(p.Images, img)
	p.UpdatedAt = time.Now()
	return &p.Images[len(p.Images)-1], nil
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (p *Product) clearPrimary(variantID *uuid.UUID) {
	for i := range p.Images {
		if sameScope(p.Images[i].VariantID, variantID) {
			p.Images[i].IsPrimary = false
		}
	}
}

// PrimaryImage picks the image to show for a variant: the variant's primary
// image, then any image of the variant, then the product's primary image,
// then the first image by position. Empty when the gallery is empty.
func (p *Product) PrimaryImage(variantID *uuid.UUID) string {
	if len(p.Images) == 0 {
		return ""
	}
	imgs := append([]ProductImage(nil), p.Images...)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Position < imgs[j].Position })

	if variantID != nil {
		var first string
		for _, img := range imgs {
			if img.VariantID != nil && *img.VariantID == *variantID {
				if img.IsPrimary {
					return img.URL
				}
				if first == "" {
					first = img.URL
				}
			}
		}
		if first != "" {
			return first
		}
	}
	for _, img := range imgs {
		if img.VariantID == nil && img.IsPrimary {
			return img.URL
		}
	}
	return imgs[0].URL
}

// ActiveVariants returns only variants that are for sale
func (p *Product) ActiveVariants() []Variant {
	out := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out
}
