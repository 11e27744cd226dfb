package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StorefrontService serves the public catalog: listings, product pages and
// variant selection.
type StorefrontService struct {
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewStorefrontService creates a new StorefrontService
func NewStorefrontService(products catalog.ProductRepository, logger *zap.Logger) *StorefrontService {
	return &StorefrontService{products: products, logger: logger}
}

// ListProducts lists active products
func (s *StorefrontService) ListProducts(ctx context.Context, filter shared.Filter) (shared.Paginated[ProductListItem], error) {
	if filter.Filters == nil {
		filter.Filters = make(map[string]any)
	}
	filter.Filters["active"] = true

	products, total, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductListItem]{}, err
	}
	items := make([]ProductListItem, 0, len(products))
	for i := range products {
		items = append(items, ToProductListItem(&products[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// loadActive finds a product by slug. Inactive products do not exist for the storefront.
func (s *StorefrontService) loadActive(ctx context.Context, slug string) (*catalog.Product, error) {
	p, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Product")
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, shared.NotFoundError("Product")
	}
	return p, nil
}

// GetProduct returns the product page with active variants only
func (s *StorefrontService) GetProduct(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := s.loadActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	d := ToProductDetail(p, true)
	return &d, nil
}

// activeOnly returns a copy of p that only carries sellable variants, so an
// inactive variant can never be resolved.
func activeOnly(p *catalog.Product) *catalog.Product {
	cp := *p
	cp.Variants = p.ActiveVariants()
	return &cp
}

// Resolve maps a selection (attribute name -> value) to a single variant.
// No match and ambiguity are both answered with Found=false.
func (s *StorefrontService) Resolve(ctx context.Context, slug string, selections map[string]string) (*ResolveResult, error) {
	p, err := s.loadActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	sellable := activeOnly(p)

	result := &ResolveResult{Candidates: len(catalog.Candidates(sellable, selections))}
	rv, ok := catalog.ResolveVariant(sellable, selections)
	if !ok {
		return result, nil
	}
	id := rv.VariantID
	price := rv.Price
	result.Found = true
	result.VariantID = &id
	result.SKU = rv.SKU
	result.Price = &price
	result.SalePrice = rv.SalePrice
	result.StockTotal = rv.StockTotal
	result.PrimaryImage = rv.PrimaryImage
	return result, nil
}

// Facets lists the distinct values of one attribute across active variants.
// Color values carry a display swatch.
func (s *StorefrontService) Facets(ctx context.Context, slug, attribute string) ([]FacetValue, error) {
	p, err := s.loadActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	values := catalog.DistinctValues(activeOnly(p), attribute)
	withSwatch := strings.EqualFold(attribute, "color")

	out := make([]FacetValue, 0, len(values))
	for _, v := range values {
		f := FacetValue{ID: v.ID, Value: v.Value}
		if withSwatch {
			f.Swatch = catalog.SwatchColor(v.Value)
		}
		out = append(out, f)
	}
	return out, nil
}
