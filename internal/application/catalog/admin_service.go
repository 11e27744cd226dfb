package catalog

import (
	"context"
	"errors"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminService manages the catalog from the backoffice
type AdminService struct {
	products       catalog.ProductRepository
	attributes     catalog.AttributeRepository
	storage        common.ObjectStorage
	eventPublisher shared.EventPublisher
	maxUploadSize  int64
	logger         *zap.Logger
}

// AdminServiceConfig wires an AdminService
type AdminServiceConfig struct {
	Products      catalog.ProductRepository
	Attributes    catalog.AttributeRepository
	Storage       common.ObjectStorage
	MaxUploadSize int64
	Logger        *zap.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(cfg AdminServiceConfig) *AdminService {
	return &AdminService{
		products:      cfg.Products,
		attributes:    cfg.Attributes,
		storage:       cfg.Storage,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        cfg.Logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *AdminService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AdminService) loadAttributes(ctx context.Context, ids []uuid.UUID) ([]catalog.Attribute, error) {
	if len(ids) == 0 {
		return []catalog.Attribute{}, nil
	}
	attrs, err := s.attributes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(attrs) != len(ids) {
		return nil, shared.NotFoundError("Attribute")
	}
	return attrs, nil
}

func (s *AdminService) ensureSlugFree(ctx context.Context, slug string, exclude uuid.UUID) error {
	exists, err := s.products.ExistsBySlug(ctx, slug, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "A product with slug "+slug+" already exists")
	}
	return nil
}

func (s *AdminService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Product")
		}
		return nil, err
	}
	return p, nil
}

func (s *AdminService) save(ctx context.Context, p *catalog.Product) error {
	if err := s.products.Save(ctx, p); err != nil {
		return err
	}
	common.PublishEvents(ctx, s.eventPublisher, s.logger, p)
	return nil
}

// CreateProduct creates a product with its attribute set
func (s *AdminService) CreateProduct(ctx context.Context, session shared.Session, req CreateProductRequest) (*ProductDetail, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(req.Name, req.Description, req.Category, catalog.Gender(req.Gender))
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, p.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	attrs, err := s.loadAttributes(ctx, req.AttributeIDs)
	if err != nil {
		return nil, err
	}
	if err := p.SetAttributes(attrs); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("slug", p.Slug))
	d := ToProductDetail(p, false)
	return &d, nil
}

// UpdateProduct edits a product. A nil attribute list keeps the current set.
func (s *AdminService) UpdateProduct(ctx context.Context, session shared.Session, id uuid.UUID, req UpdateProductRequest) (*ProductDetail, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	p, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Description, req.Category, catalog.Gender(req.Gender), req.IsActive); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, p.Slug, p.ID); err != nil {
		return nil, err
	}
	if req.AttributeIDs != nil {
		attrs, err := s.loadAttributes(ctx, req.AttributeIDs)
		if err != nil {
			return nil, err
		}
		if err := p.SetAttributes(attrs); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	d := ToProductDetail(p, false)
	return &d, nil
}

// GetProduct returns a product including inactive variants
func (s *AdminService) GetProduct(ctx context.Context, session shared.Session, id uuid.UUID) (*ProductDetail, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	p, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	d := ToProductDetail(p, false)
	return &d, nil
}

// ListProducts lists every product, active or not
func (s *AdminService) ListProducts(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[ProductListItem], error) {
	if _, err := session.RequireOperator(); err != nil {
		return shared.Paginated[ProductListItem]{}, err
	}
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

func (s *AdminService) loadValues(ctx context.Context, ids []uuid.UUID) ([]catalog.AttributeValue, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values, err := s.attributes.FindValues(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(values) != len(ids) {
		return nil, shared.NotFoundError("Attribute value")
	}
	return values, nil
}

func (s *AdminService) ensureSKUFree(ctx context.Context, sku string, exclude uuid.UUID) error {
	if sku == "" {
		return nil
	}
	exists, err := s.products.ExistsBySKU(ctx, sku, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "SKU already exists: "+sku)
	}
	return nil
}

// AddVariant adds a variant to a product
func (s *AdminService) AddVariant(ctx context.Context, session shared.Session, productID uuid.UUID, req VariantRequest) (*VariantDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	p, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	values, err := s.loadValues(ctx, req.ValueIDs)
	if err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	v, err := p.AddVariant(catalog.VariantInput{
		SKU:       req.SKU,
		Price:     req.Price,
		SalePrice: req.SalePrice,
		IsActive:  active,
		Values:    values,
	})
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, v.SKU, v.ID); err != nil {
		return nil, err
	}
	dto := ToVariantDTO(v)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return &dto, nil
}

// UpdateVariant edits a variant's pricing, availability or combination
func (s *AdminService) UpdateVariant(ctx context.Context, session shared.Session, variantID uuid.UUID, req VariantRequest) (*VariantDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	current, err := s.products.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Variant")
		}
		return nil, err
	}
	p, err := s.findProduct(ctx, current.ProductID)
	if err != nil {
		return nil, err
	}
	values, err := s.loadValues(ctx, req.ValueIDs)
	if err != nil {
		return nil, err
	}
	active := current.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	v, err := p.UpdateVariant(variantID, catalog.VariantInput{
		Price:     req.Price,
		SalePrice: req.SalePrice,
		IsActive:  active,
		Values:    values,
	})
	if err != nil {
		return nil, err
	}
	dto := ToVariantDTO(v)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListAttributes lists every attribute with its values
func (s *AdminService) ListAttributes(ctx context.Context) ([]AttributeDTO, error) {
	attrs, err := s.attributes.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AttributeDTO, 0, len(attrs))
	for i := range attrs {
		out = append(out, ToAttributeDTO(&attrs[i]))
	}
	return out, nil
}

// CreateAttribute creates an attribute, optionally with initial values
func (s *AdminService) CreateAttribute(ctx context.Context, session shared.Session, req CreateAttributeRequest) (*AttributeDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	if _, err := s.attributes.FindByName(ctx, req.Name); err == nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Attribute already exists: "+req.Name)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	attr, err := catalog.NewAttribute(req.Name)
	if err != nil {
		return nil, err
	}
	for _, v := range req.Values {
		if _, err := attr.AddValue(v); err != nil {
			return nil, err
		}
	}
	if err := s.attributes.Save(ctx, attr); err != nil {
		return nil, err
	}
	dto := ToAttributeDTO(attr)
	return &dto, nil
}

// AddAttributeValue adds a literal value to an attribute
func (s *AdminService) AddAttributeValue(ctx context.Context, session shared.Session, attributeID uuid.UUID, value string) (*AttributeDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	attr, err := s.attributes.FindByID(ctx, attributeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Attribute")
		}
		return nil, err
	}
	if _, err := attr.AddValue(value); err != nil {
		return nil, err
	}
	if err := s.attributes.Save(ctx, attr); err != nil {
		return nil, err
	}
	dto := ToAttributeDTO(attr)
	return &dto, nil
}

// AddImage uploads an image to object storage and adds it to the gallery.
// The object is removed again when the product cannot be saved.
func (s *AdminService) AddImage(ctx context.Context, session shared.Session, productID uuid.UUID, in AddImageInput, file common.UploadedFile) (*ImageDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	if err := common.ValidateUpload(file, common.ImageContentTypes, s.maxUploadSize); err != nil {
		return nil, err
	}
	p, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if in.VariantID != nil && p.FindVariant(*in.VariantID) == nil {
		return nil, shared.NotFoundError("Variant")
	}

	key := common.ObjectKey("products", p.ID, file)
	url, err := s.storage.Upload(ctx, key, file.Body, file.Size, file.ContentType)
	if err != nil {
		s.logger.Error("Failed to upload product image", zap.String("key", key), zap.Error(err))
		return nil, shared.ErrUpstreamUnavailable
	}

	img, err := p.AddImage(url, in.AltText, in.VariantID, in.IsPrimary || len(p.Images) == 0)
	if err != nil {
		_ = s.storage.DeleteObject(ctx, key)
		return nil, err
	}
	dto := ImageDTO{
		ID:        img.ID,
		VariantID: img.VariantID,
		URL:       img.URL,
		AltText:   img.AltText,
		IsPrimary: img.IsPrimary,
		Position:  img.Position,
	}
	if err := s.save(ctx, p); err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return &dto, nil
}
