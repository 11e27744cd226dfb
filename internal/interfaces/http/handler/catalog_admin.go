package handler

import (
	"context"
	"strconv"

	catalogapp "github.com/boutique/backend/internal/application/catalog"
	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogAdminService is what the operator catalog endpoints need
type CatalogAdminService interface {
	CreateProduct(ctx context.Context, session shared.Session, req catalogapp.CreateProductRequest) (*catalogapp.ProductDetail, error)
	UpdateProduct(ctx context.Context, session shared.Session, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductDetail, error)
	GetProduct(ctx context.Context, session shared.Session, id uuid.UUID) (*catalogapp.ProductDetail, error)
	ListProducts(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[catalogapp.ProductListItem], error)
	AddVariant(ctx context.Context, session shared.Session, productID uuid.UUID, req catalogapp.VariantRequest) (*catalogapp.VariantDTO, error)
	UpdateVariant(ctx context.Context, session shared.Session, variantID uuid.UUID, req catalogapp.VariantRequest) (*catalogapp.VariantDTO, error)
	ListAttributes(ctx context.Context) ([]catalogapp.AttributeDTO, error)
	CreateAttribute(ctx context.Context, session shared.Session, req catalogapp.CreateAttributeRequest) (*catalogapp.AttributeDTO, error)
	AddAttributeValue(ctx context.Context, session shared.Session, attributeID uuid.UUID, value string) (*catalogapp.AttributeDTO, error)
	AddImage(ctx context.Context, session shared.Session, productID uuid.UUID, in catalogapp.AddImageInput, file common.UploadedFile) (*catalogapp.ImageDTO, error)
}

// CatalogAdminHandler serves product, variant and attribute management
type CatalogAdminHandler struct {
	BaseHandler
	admin CatalogAdminService
}

// NewCatalogAdminHandler creates a new CatalogAdminHandler
func NewCatalogAdminHandler(admin CatalogAdminService) *CatalogAdminHandler {
	return &CatalogAdminHandler{admin: admin}
}

// ListProducts godoc
// @Summary      List all products, inactive included
// @Tags         admin-catalog
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Search by name"
// @Success      200 {object} APIResponse[[]catalogapp.ProductListItem]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [get]
func (h *CatalogAdminHandler) ListProducts(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.admin.ListProducts(c.Request.Context(), session(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetProduct godoc
// @Summary      Get a product by ID
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductDetail]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id} [get]
func (h *CatalogAdminHandler) GetProduct(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.admin.GetProduct(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// CreateProduct godoc
// @Summary      Create a product
// @Description  The slug is derived from the name. Variants are added separately.
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} APIResponse[catalogapp.ProductDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *CatalogAdminHandler) CreateProduct(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	detail, err := h.admin.CreateProduct(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, detail)
}

// UpdateProduct godoc
// @Summary      Update a product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Product"
// @Success      200 {object} APIResponse[catalogapp.ProductDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id} [put]
func (h *CatalogAdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	detail, err := h.admin.UpdateProduct(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// AddVariant godoc
// @Summary      Add a variant to a product
// @Description  value_ids must pick exactly one value of each product attribute.
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID" format(uuid)
// @Param        request body catalogapp.VariantRequest true "Variant"
// @Success      201 {object} APIResponse[catalogapp.VariantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id}/variants [post]
func (h *CatalogAdminHandler) AddVariant(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.VariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	variant, err := h.admin.AddVariant(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, variant)
}

// UpdateVariant godoc
// @Summary      Update a variant
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id      path string true "Variant ID" format(uuid)
// @Param        request body catalogapp.VariantRequest true "Variant"
// @Success      200 {object} APIResponse[catalogapp.VariantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/variants/{id} [put]
func (h *CatalogAdminHandler) UpdateVariant(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.VariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	variant, err := h.admin.UpdateVariant(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variant)
}

// ListAttributes godoc
// @Summary      List attributes and their values
// @Tags         admin-catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]catalogapp.AttributeDTO]
// @Security     BearerAuth
// @Router       /admin/attributes [get]
func (h *CatalogAdminHandler) ListAttributes(c *gin.Context) {
	attrs, err := h.admin.ListAttributes(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attrs)
}

// CreateAttribute godoc
// @Summary      Create an attribute
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateAttributeRequest true "Attribute"
// @Success      201 {object} APIResponse[catalogapp.AttributeDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/attributes [post]
func (h *CatalogAdminHandler) CreateAttribute(c *gin.Context) {
	var req catalogapp.CreateAttributeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	attr, err := h.admin.CreateAttribute(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attr)
}

// AddAttributeValue godoc
// @Summary      Add a value to an attribute
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id      path string true "Attribute ID" format(uuid)
// @Param        request body catalogapp.AddAttributeValueRequest true "Value"
// @Success      201 {object} APIResponse[catalogapp.AttributeDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/attributes/{id}/values [post]
func (h *CatalogAdminHandler) AddAttributeValue(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AddAttributeValueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	attr, err := h.admin.AddAttributeValue(c.Request.Context(), session(c), id, req.Value)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attr)
}

// AddImage godoc
// @Summary      Upload a gallery image
// @Tags         admin-catalog
// @Accept       multipart/form-data
// @Produce      json
// @Param        id         path     string true  "Product ID" format(uuid)
// @Param        file       formData file   true  "Image (jpeg, png, webp)"
// @Param        variant_id formData string false "Variant the image belongs to"
// @Param        alt_text   formData string false "Alternative text"
// @Param        is_primary formData bool   false "Make it the primary image"
// @Success      201 {object} APIResponse[catalogapp.ImageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id}/images [post]
func (h *CatalogAdminHandler) AddImage(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	in := catalogapp.AddImageInput{AltText: c.PostForm("alt_text")}
	if raw := c.PostForm("variant_id"); raw != "" {
		variantID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid variant_id")
			return
		}
		in.VariantID = &variantID
	}
	if raw := c.PostForm("is_primary"); raw != "" {
		primary, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "Invalid is_primary")
			return
		}
		in.IsPrimary = primary
	}

	file, closeFn, ok := h.formFile(c, "file")
	if !ok {
		return
	}
	defer closeFn()

	img, err := h.admin.AddImage(c.Request.Context(), session(c), id, in, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, img)
}
