package catalog

import (
	"context"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence.
// Loaded products carry their attributes, variants (with values and
// stock_total) and images.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySlug finds a product by its slug
	FindBySlug(ctx context.Context, slug string) (*Product, error)

	// FindAll lists products. Filters: "active" (bool), "gender", "category".
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// FindVariant finds a single variant with its values and stock_total
	FindVariant(ctx context.Context, variantID uuid.UUID) (*Variant, error)

	// FindVariants loads several variants at once
	FindVariants(ctx context.Context, variantIDs []uuid.UUID) ([]Variant, error)

	// Save creates or updates the product with its variants and images
	Save(ctx context.Context, product *Product) error

	// ExistsBySlug checks slug uniqueness, excluding the given product
	ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

	// ExistsBySKU checks SKU uniqueness across all products
	ExistsBySKU(ctx context.Context, sku string, excludeVariantID uuid.UUID) (bool, error)
}

// AttributeRepository persists attributes and their values
type AttributeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Attribute, error)
	FindByName(ctx context.Context, name string) (*Attribute, error)
	FindAll(ctx context.Context) ([]Attribute, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Attribute, error)
	FindValues(ctx context.Context, valueIDs []uuid.UUID) ([]AttributeValue, error)
	Save(ctx context.Context, attr *Attribute) error
}
