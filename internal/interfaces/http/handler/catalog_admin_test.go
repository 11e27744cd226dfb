package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	catalogapp "github.com/boutique/backend/internal/application/catalog"
	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalogAdminService struct {
	mock.Mock
}

func (m *MockCatalogAdminService) detail(args mock.Arguments) (*catalogapp.ProductDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductDetail), args.Error(1)
}

func (m *MockCatalogAdminService) variant(args mock.Arguments) (*catalogapp.VariantDTO, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.VariantDTO), args.Error(1)
}

func (m *MockCatalogAdminService) attribute(args mock.Arguments) (*catalogapp.AttributeDTO, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.AttributeDTO), args.Error(1)
}

func (m *MockCatalogAdminService) CreateProduct(ctx context.Context, session shared.Session, req catalogapp.CreateProductRequest) (*catalogapp.ProductDetail, error) {
	return m.detail(m.Called(ctx, session, req))
}

func (m *MockCatalogAdminService) UpdateProduct(ctx context.Context, session shared.Session, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductDetail, error) {
	return m.detail(m.Called(ctx, session, id, req))
}

func (m *MockCatalogAdminService) GetProduct(ctx context.Context, session shared.Session, id uuid.UUID) (*catalogapp.ProductDetail, error) {
	return m.detail(m.Called(ctx, session, id))
}

func (m *MockCatalogAdminService) ListProducts(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[catalogapp.ProductListItem], error) {
	args := m.Called(ctx, session, filter)
	return args.Get(0).(shared.Paginated[catalogapp.ProductListItem]), args.Error(1)
}

func (m *MockCatalogAdminService) AddVariant(ctx context.Context, session shared.Session, productID uuid.UUID, req catalogapp.VariantRequest) (*catalogapp.VariantDTO, error) {
	return m.variant(m.Called(ctx, session, productID, req))
}

func (m *MockCatalogAdminService) UpdateVariant(ctx context.Context, session shared.Session, variantID uuid.UUID, req catalogapp.VariantRequest) (*catalogapp.VariantDTO, error) {
	return m.variant(m.Called(ctx, session, variantID, req))
}

func (m *MockCatalogAdminService) ListAttributes(ctx context.Context) ([]catalogapp.AttributeDTO, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalogapp.AttributeDTO), args.Error(1)
}

func (m *MockCatalogAdminService) CreateAttribute(ctx context.Context, session shared.Session, req catalogapp.CreateAttributeRequest) (*catalogapp.AttributeDTO, error) {
	return m.attribute(m.Called(ctx, session, req))
}

func (m *MockCatalogAdminService) AddAttributeValue(ctx context.Context, session shared.Session, attributeID uuid.UUID, value string) (*catalogapp.AttributeDTO, error) {
	return m.attribute(m.Called(ctx, session, attributeID, value))
}

func (m *MockCatalogAdminService) AddImage(ctx context.Context, session shared.Session, productID uuid.UUID, in catalogapp.AddImageInput, file common.UploadedFile) (*catalogapp.ImageDTO, error) {
	args := m.Called(ctx, session, productID, in, file.Filename, file.ContentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ImageDTO), args.Error(1)
}

func catalogAdminRouter(svc *MockCatalogAdminService) http.Handler {
	h := NewCatalogAdminHandler(svc)
	r := testRouter(operatorSession())
	r.POST("/admin/products", h.CreateProduct)
	r.POST("/admin/products/:id/variants", h.AddVariant)
	r.POST("/admin/products/:id/images", h.AddImage)
	r.POST("/admin/attributes/:id/values", h.AddAttributeValue)
	return r
}

func TestCatalogAdminHandler_AddVariant_SKUFormat(t *testing.T) {
	svc := new(MockCatalogAdminService)
	productID := uuid.New()

	w := doJSON(catalogAdminRouter(svc), http.MethodPost, "/admin/products/"+productID.String()+"/variants",
		`{"sku":"tee black m","price":"19.90"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "AddVariant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogAdminHandler_AddVariant_DuplicateCombination(t *testing.T) {
	svc := new(MockCatalogAdminService)
	productID := uuid.New()
	svc.On("AddVariant", mock.Anything, mock.Anything, productID, mock.MatchedBy(func(req catalogapp.VariantRequest) bool {
		return req.SKU == "TEE-BLK-M" && len(req.ValueIDs) == 2
	})).Return(nil, shared.NewDomainError(shared.CodeAlreadyExists, "A variant with this combination already exists"))

	w := doJSON(catalogAdminRouter(svc), http.MethodPost, "/admin/products/"+productID.String()+"/variants",
		`{"sku":"TEE-BLK-M","price":"19.90","value_ids":["`+uuid.NewString()+`","`+uuid.NewString()+`"]}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestCatalogAdminHandler_AddAttributeValue(t *testing.T) {
	svc := new(MockCatalogAdminService)
	attrID := uuid.New()
	svc.On("AddAttributeValue", mock.Anything, mock.Anything, attrID, "XL").
		Return(&catalogapp.AttributeDTO{ID: attrID, Name: "Talla"}, nil)

	w := doJSON(catalogAdminRouter(svc), http.MethodPost, "/admin/attributes/"+attrID.String()+"/values", map[string]any{"value": "XL"})

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestCatalogAdminHandler_AddImage(t *testing.T) {
	svc := new(MockCatalogAdminService)
	productID := uuid.New()
	variantID := uuid.New()
	svc.On("AddImage", mock.Anything, mock.Anything, productID,
		catalogapp.AddImageInput{VariantID: &variantID, AltText: "Frente", IsPrimary: true},
		"front.jpg", "image/jpeg").
		Return(&catalogapp.ImageDTO{ID: uuid.New(), URL: "/uploads/products/front.jpg", IsPrimary: true}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("variant_id", variantID.String()))
	require.NoError(t, mw.WriteField("alt_text", "Frente"))
	require.NoError(t, mw.WriteField("is_primary", "true"))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="front.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/products/"+productID.String()+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	catalogAdminRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decodeData[catalogapp.ImageDTO](t, w).IsPrimary)
	svc.AssertExpectations(t)
}

func TestCatalogAdminHandler_AddImage_BadVariantID(t *testing.T) {
	svc := new(MockCatalogAdminService)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("variant_id", "nope"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/products/"+uuid.NewString()+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	catalogAdminRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
