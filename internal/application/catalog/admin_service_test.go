package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type adminFixture struct {
	svc       *AdminService
	products  *testutil.MockProductRepository
	attrs     *testutil.MockAttributeRepository
	storage   *testutil.MockObjectStorage
	publisher *testutil.MockEventPublisher
	operator  shared.Session
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		products:  new(testutil.MockProductRepository),
		attrs:     new(testutil.MockAttributeRepository),
		storage:   new(testutil.MockObjectStorage),
		publisher: testutil.NewMockEventPublisher(nil),
		operator:  shared.NewUserSession(uuid.New(), "ops@boutique.pe", true, ""),
	}
	f.svc = NewAdminService(AdminServiceConfig{
		Products:      f.products,
		Attributes:    f.attrs,
		Storage:       f.storage,
		MaxUploadSize: 1 << 20,
		Logger:        zap.NewNop(),
	})
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func TestAdmin_RequiresOperator(t *testing.T) {
	f := newAdminFixture()
	customer := shared.NewUserSession(uuid.New(), "ana@example.com", false, "")

	_, err := f.svc.CreateProduct(context.Background(), customer, CreateProductRequest{Name: "Polo"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.svc.CreateAttribute(context.Background(), shared.NewAnonymousSession("k"), CreateAttributeRequest{Name: "Talla"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAdmin_CreateProduct(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	fx := testutil.NewPoloFixture()
	ids := []uuid.UUID{fx.Talla.ID, fx.Color.ID}

	f.products.On("ExistsBySlug", ctx, "casaca-denim", uuid.Nil).Return(false, nil)
	f.attrs.On("FindByIDs", ctx, ids).Return([]catalog.Attribute{*fx.Talla, *fx.Color}, nil)
	f.products.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

	d, err := f.svc.CreateProduct(ctx, f.operator, CreateProductRequest{
		Name:         "Casaca Denim",
		Gender:       "WOMEN",
		AttributeIDs: ids,
	})
	require.NoError(t, err)
	assert.Equal(t, "casaca-denim", d.Slug)
	assert.Equal(t, "WOMEN", d.Gender)
	assert.Len(t, d.Attributes, 2)
	assert.Equal(t, []string{catalog.EventTypeProductCreated}, f.publisher.EventTypes())
}

func TestAdmin_CreateProduct_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	f.products.On("ExistsBySlug", ctx, "polo-basico", uuid.Nil).Return(true, nil)

	_, err := f.svc.CreateProduct(ctx, f.operator, CreateProductRequest{Name: "Polo Básico"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAdmin_AddVariant(t *testing.T) {
	ctx := context.Background()
	fx := testutil.NewPoloFixture()

	t.Run("adds a new combination", func(t *testing.T) {
		f := newAdminFixture()
		valueIDs := []uuid.UUID{fx.Values["S"].ID, fx.Values["Blanco"].ID}
		f.products.On("FindByID", ctx, fx.Product.ID).Return(fx.Product, nil)
		f.attrs.On("FindValues", ctx, valueIDs).Return([]catalog.AttributeValue{fx.Values["S"], fx.Values["Blanco"]}, nil)
		f.products.On("ExistsBySKU", ctx, "POLO-S-BLANCO", mock.Anything).Return(false, nil)
		f.products.On("Save", ctx, fx.Product).Return(nil)

		v, err := f.svc.AddVariant(ctx, f.operator, fx.Product.ID, VariantRequest{
			SKU:      "polo-s-blanco",
			Price:    decimal.RequireFromString("49.90"),
			ValueIDs: valueIDs,
		})
		require.NoError(t, err)
		assert.Equal(t, "POLO-S-BLANCO", v.SKU)
		assert.True(t, v.IsActive)
		assert.Equal(t, "Talla: S / Color: Blanco", v.Label)
	})

	t.Run("duplicate combination is rejected", func(t *testing.T) {
		f := newAdminFixture()
		fx := testutil.NewPoloFixture()
		valueIDs := []uuid.UUID{fx.Values["M"].ID, fx.Values["Negro"].ID}
		f.products.On("FindByID", ctx, fx.Product.ID).Return(fx.Product, nil)
		f.attrs.On("FindValues", ctx, valueIDs).Return([]catalog.AttributeValue{fx.Values["M"], fx.Values["Negro"]}, nil)

		_, err := f.svc.AddVariant(ctx, f.operator, fx.Product.ID, VariantRequest{
			Price:    decimal.NewFromInt(10),
			ValueIDs: valueIDs,
		})
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "DUPLICATE_COMBINATION", de.Code)
	})

	t.Run("SKU used by another product is rejected", func(t *testing.T) {
		f := newAdminFixture()
		fx := testutil.NewPoloFixture()
		valueIDs := []uuid.UUID{fx.Values["S"].ID, fx.Values["Blanco"].ID}
		f.products.On("FindByID", ctx, fx.Product.ID).Return(fx.Product, nil)
		f.attrs.On("FindValues", ctx, valueIDs).Return([]catalog.AttributeValue{fx.Values["S"], fx.Values["Blanco"]}, nil)
		f.products.On("ExistsBySKU", ctx, "TAKEN", mock.Anything).Return(true, nil)

		_, err := f.svc.AddVariant(ctx, f.operator, fx.Product.ID, VariantRequest{
			SKU:      "taken",
			Price:    decimal.NewFromInt(10),
			ValueIDs: valueIDs,
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAdmin_UpdateVariantPrice(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	fx := testutil.NewPoloFixture()
	current := fx.Variant("POLO-S-NEGRO")

	f.products.On("FindVariant", ctx, current.ID).Return(current, nil)
	f.products.On("FindByID", ctx, fx.Product.ID).Return(fx.Product, nil)
	f.products.On("Save", ctx, fx.Product).Return(nil)

	sale := decimal.RequireFromString("29.90")
	v, err := f.svc.UpdateVariant(ctx, f.operator, current.ID, VariantRequest{
		Price:     decimal.RequireFromString("49.90"),
		SalePrice: &sale,
	})
	require.NoError(t, err)
	assert.True(t, v.UnitPrice.Equal(sale))
	assert.True(t, v.IsActive)
	assert.Contains(t, f.publisher.EventTypes(), catalog.EventTypeVariantPriceChanged)
}

func TestAdmin_CreateAttribute(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	f.attrs.On("FindByName", ctx, "Talla").Return(nil, shared.ErrNotFound)
	f.attrs.On("Save", ctx, mock.AnythingOfType("*catalog.Attribute")).Return(nil)

	a, err := f.svc.CreateAttribute(ctx, f.operator, CreateAttributeRequest{Name: "Talla", Values: []string{"S", "M", "L"}})
	require.NoError(t, err)
	assert.Len(t, a.Values, 3)

	f.attrs.On("FindByName", ctx, "Color").Return(&catalog.Attribute{Name: "Color"}, nil)
	_, err = f.svc.CreateAttribute(ctx, f.operator, CreateAttributeRequest{Name: "Color"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestAdmin_AddImage(t *testing.T) {
	ctx := context.Background()
	body := []byte("\x89PNG fake")

	t.Run("uploads and becomes primary when first", func(t *testing.T) {
		f := newAdminFixture()
		fx := testutil.NewPoloFixture()
		f.products.On("FindByID", ctx, fx.Product.ID).Return(fx.Product, nil)
		f.storage.On("Upload", ctx, mock.MatchedBy(func(k string) bool {
			return strings.HasPrefix(k, "products/"+fx.Product.ID.String()+"/") && strings.HasSuffix(k, ".png")
		}), mock.Anything, int64(len(body)), "image/png").Return("https://cdn.test/polo.png", nil)
		f.products.On("Save", ctx, fx.Product).Return(nil)

		img, err := f.svc.AddImage(ctx, f.operator, fx.Product.ID, AddImageInput{AltText: "frente"}, common.UploadedFile{
			Filename: "polo.png", ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body),
		})
		require.NoError(t, err)
		assert.True(t, img.IsPrimary)
		assert.Equal(t, "https://cdn.test/polo.png", fx.Product.PrimaryImage(nil))
	})

	t.Run("rejects unsupported type before uploading", func(t *testing.T) {
		f := newAdminFixture()
		_, err := f.svc.AddImage(ctx, f.operator, uuid.New(), AddImageInput{}, common.UploadedFile{
			Filename: "x.gif", ContentType: "image/gif", Size: 3, Body: bytes.NewReader([]byte("gif")),
		})
		require.Error(t, err)
		f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("removes the object when saving fails", func(t *testing.T) {
		f := newAdminFixture()
		fx := testutil.NewPoloFixture()
		f.products.On("FindByID", ctx, fx.Product.ID).Return(fx.Product, nil)
		f.storage.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return("https://cdn.test/a.jpg", nil)
		f.products.On("Save", ctx, fx.Product).Return(errors.New("db down"))
		f.storage.On("DeleteObject", ctx, mock.Anything).Return(nil)

		_, err := f.svc.AddImage(ctx, f.operator, fx.Product.ID, AddImageInput{}, common.UploadedFile{
			Filename: "a.jpg", ContentType: "image/jpeg", Size: 4, Body: bytes.NewReader([]byte("jpeg")),
		})
		require.Error(t, err)
		f.storage.AssertCalled(t, "DeleteObject", ctx, mock.Anything)
	})
}
