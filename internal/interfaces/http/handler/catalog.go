package handler

import (
	"context"

	catalogapp "github.com/boutique/backend/internal/application/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// StorefrontService is what the public catalog endpoints need
type StorefrontService interface {
	ListProducts(ctx context.Context, filter shared.Filter) (shared.Paginated[catalogapp.ProductListItem], error)
	GetProduct(ctx context.Context, slug string) (*catalogapp.ProductDetail, error)
	Resolve(ctx context.Context, slug string, selections map[string]string) (*catalogapp.ResolveResult, error)
	Facets(ctx context.Context, slug, attribute string) ([]catalogapp.FacetValue, error)
}

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	BaseHandler
	storefront StorefrontService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(storefront StorefrontService) *CatalogHandler {
	return &CatalogHandler{storefront: storefront}
}

type slugURI struct {
	Slug string `uri:"slug" binding:"required,slug"`
}

type facetURI struct {
	Slug      string `uri:"slug" binding:"required,slug"`
	Attribute string `uri:"attribute" binding:"required,max=100"`
}

func (h *CatalogHandler) bindSlug(c *gin.Context) (string, bool) {
	var uri slugURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeNotFound, "Product not found"))
		return "", false
	}
	return uri.Slug, true
}

// ListProducts godoc
// @Summary      List active products
// @Tags         catalog
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Search by name"
// @Success      200 {object} APIResponse[[]catalogapp.ProductListItem]
// @Failure      400 {object} ErrorResponse
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.storefront.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetProduct godoc
// @Summary      Get a product page
// @Tags         catalog
// @Produce      json
// @Param        slug path string true "Product slug"
// @Success      200 {object} APIResponse[catalogapp.ProductDetail]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/products/{slug} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	slug, ok := h.bindSlug(c)
	if !ok {
		return
	}
	detail, err := h.storefront.GetProduct(c.Request.Context(), slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Resolve godoc
// @Summary      Resolve a variant from attribute selections
// @Description  Every query parameter is an attribute selection, e.g. ?Talla=M&Color=Negro.
// @Description  An empty or partial selection answers found=false with the candidate count.
// @Tags         catalog
// @Produce      json
// @Param        slug path string true "Product slug"
// @Success      200 {object} APIResponse[catalogapp.ResolveResult]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/products/{slug}/resolve [get]
func (h *CatalogHandler) Resolve(c *gin.Context) {
	slug, ok := h.bindSlug(c)
	if !ok {
		return
	}
	selections := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			selections[name] = values[0]
		}
	}
	result, err := h.storefront.Resolve(c.Request.Context(), slug, selections)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Facets godoc
// @Summary      List the values of one attribute with swatches
// @Tags         catalog
// @Produce      json
// @Param        slug      path string true "Product slug"
// @Param        attribute path string true "Attribute name"
// @Success      200 {object} APIResponse[[]catalogapp.FacetValue]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/products/{slug}/facets/{attribute} [get]
func (h *CatalogHandler) Facets(c *gin.Context) {
	var uri facetURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeNotFound, "Product not found"))
		return
	}
	values, err := h.storefront.Facets(c.Request.Context(), uri.Slug, uri.Attribute)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, values)
}
