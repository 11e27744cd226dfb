package seed

import (
	"context"
	"strings"
	"testing"

	catalogapp "github.com/boutique/backend/internal/application/catalog"
	identityapp "github.com/boutique/backend/internal/application/identity"
	inventoryapp "github.com/boutique/backend/internal/application/inventory"
	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCatalog keeps attributes and variants in memory
type fakeCatalog struct {
	attributes []catalogapp.AttributeDTO
	products   []catalogapp.CreateProductRequest
	variants   []catalogapp.VariantRequest
}

func (f *fakeCatalog) ListAttributes(context.Context) ([]catalogapp.AttributeDTO, error) {
	return f.attributes, nil
}

func (f *fakeCatalog) CreateAttribute(_ context.Context, _ shared.Session, req catalogapp.CreateAttributeRequest) (*catalogapp.AttributeDTO, error) {
	a := catalogapp.AttributeDTO{ID: uuid.New(), Name: req.Name}
	for _, v := range req.Values {
		a.Values = append(a.Values, catalogapp.AttributeValueDTO{ID: uuid.New(), AttributeID: a.ID, Value: v})
	}
	f.attributes = append(f.attributes, a)
	return &a, nil
}

func (f *fakeCatalog) AddAttributeValue(_ context.Context, _ shared.Session, id uuid.UUID, value string) (*catalogapp.AttributeDTO, error) {
	for i := range f.attributes {
		if f.attributes[i].ID == id {
			f.attributes[i].Values = append(f.attributes[i].Values,
				catalogapp.AttributeValueDTO{ID: uuid.New(), AttributeID: id, Value: value})
			a := f.attributes[i]
			return &a, nil
		}
	}
	return nil, shared.NotFoundError("Attribute")
}

func (f *fakeCatalog) CreateProduct(_ context.Context, _ shared.Session, req catalogapp.CreateProductRequest) (*catalogapp.ProductDetail, error) {
	f.products = append(f.products, req)
	return &catalogapp.ProductDetail{ID: uuid.New(), Name: req.Name}, nil
}

func (f *fakeCatalog) AddVariant(_ context.Context, _ shared.Session, _ uuid.UUID, req catalogapp.VariantRequest) (*catalogapp.VariantDTO, error) {
	f.variants = append(f.variants, req)
	return &catalogapp.VariantDTO{ID: uuid.New(), SKU: req.SKU}, nil
}

type fakeStock struct {
	warehouses []inventoryapp.WarehouseDTO
	created    []string
	levels     []inventoryapp.SetStockRequest
}

func (f *fakeStock) ListWarehouses(context.Context, shared.Session) ([]inventoryapp.WarehouseDTO, error) {
	return f.warehouses, nil
}

func (f *fakeStock) CreateWarehouse(_ context.Context, _ shared.Session, req inventoryapp.CreateWarehouseRequest) (*inventoryapp.WarehouseDTO, error) {
	w := inventoryapp.WarehouseDTO{ID: uuid.New(), Code: req.Code, Name: req.Name}
	f.warehouses = append(f.warehouses, w)
	f.created = append(f.created, req.Code)
	return &w, nil
}

func (f *fakeStock) SetStock(_ context.Context, _ shared.Session, req inventoryapp.SetStockRequest) (*inventoryapp.VariantStockDTO, error) {
	f.levels = append(f.levels, req)
	return &inventoryapp.VariantStockDTO{}, nil
}

func (f *fakeStock) warehouseID(code string) uuid.UUID {
	for _, w := range f.warehouses {
		if w.Code == code {
			return w.ID
		}
	}
	return uuid.Nil
}

func loadPolo(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadCatalog(strings.NewReader(poloCatalog))
	require.NoError(t, err)
	return c
}

func TestSeedCatalog(t *testing.T) {
	cat, stock := &fakeCatalog{}, &fakeStock{}
	s := New(Config{Catalog: cat, Stock: stock})
	operator := shared.NewUserSession(uuid.New(), "ops@boutique.pe", true, "")

	res, err := s.SeedCatalog(context.Background(), operator, loadPolo(t))
	require.NoError(t, err)

	assert.Equal(t, &CatalogResult{Warehouses: 2, Attributes: 2, Products: 1, Variants: 2}, res)
	assert.Equal(t, []string{"LIMA", "CUSCO"}, stock.created)

	require.Len(t, cat.products, 1)
	assert.Len(t, cat.products[0].AttributeIDs, 2)

	// Value IDs follow the product's attribute order: Color then Talla.
	require.Len(t, cat.variants, 2)
	color, talla := indexAttribute(cat.attributes[0]), indexAttribute(cat.attributes[1])
	assert.Equal(t, []uuid.UUID{color.values["Negro"], talla.values["M"]}, cat.variants[0].ValueIDs)
	assert.Equal(t, "POLO-BL-L", cat.variants[1].SKU)
	require.NotNil(t, cat.variants[1].SalePrice)

	// Three stock rows, zero quantities included.
	require.Len(t, stock.levels, 3)
	byWarehouse := map[uuid.UUID]int{}
	for _, l := range stock.levels {
		byWarehouse[l.WarehouseID] += *l.Quantity
	}
	assert.Equal(t, 1, byWarehouse[stock.warehouseID("LIMA")])
	assert.Equal(t, 4, byWarehouse[stock.warehouseID("CUSCO")])
}

func TestSeedCatalog_ReusesExisting(t *testing.T) {
	limaID := uuid.New()
	colorID := uuid.New()
	negroID := uuid.New()
	cat := &fakeCatalog{attributes: []catalogapp.AttributeDTO{{
		ID:     colorID,
		Name:   "Color",
		Values: []catalogapp.AttributeValueDTO{{ID: negroID, AttributeID: colorID, Value: "Negro"}},
	}}}
	stock := &fakeStock{warehouses: []inventoryapp.WarehouseDTO{{ID: limaID, Code: "LIMA"}}}
	s := New(Config{Catalog: cat, Stock: stock})

	res, err := s.SeedCatalog(context.Background(), shared.NewUserSession(uuid.New(), "ops@boutique.pe", true, ""), loadPolo(t))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Warehouses)
	assert.Equal(t, []string{"CUSCO"}, stock.created)
	assert.Equal(t, 1, res.Attributes, "only Talla is new")

	require.Len(t, cat.attributes, 2)
	color := indexAttribute(cat.attributes[0])
	assert.Equal(t, negroID, color.values["Negro"])
	assert.Contains(t, color.values, "Blanco")
	assert.Equal(t, negroID, cat.variants[0].ValueIDs[0])
}

func TestOperatorSession(t *testing.T) {
	op := Operator{Email: "ops@boutique.pe", Password: "Operator123", FirstName: "Ops"}

	t.Run("creates missing operator", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		users.On("FindByEmail", mock.Anything, op.Email).Return(nil, shared.ErrNotFound)
		users.On("Save", mock.Anything, mock.MatchedBy(func(u *identity.User) bool {
			return u.IsStaff && u.Email == op.Email
		})).Return(nil)

		session, err := New(Config{Users: users}).OperatorSession(context.Background(), op)
		require.NoError(t, err)
		assert.True(t, session.IsOperator())
		users.AssertExpectations(t)
	})

	t.Run("reuses existing operator", func(t *testing.T) {
		existing := &identity.User{Email: op.Email, IsStaff: true}
		existing.ID = uuid.New()
		users := new(testutil.MockUserRepository)
		users.On("FindByEmail", mock.Anything, op.Email).Return(existing, nil)

		session, err := New(Config{Users: users}).OperatorSession(context.Background(), op)
		require.NoError(t, err)
		require.NotNil(t, session.UserID)
		assert.Equal(t, existing.ID, *session.UserID)
		users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("refuses customer account", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		users.On("FindByEmail", mock.Anything, op.Email).Return(&identity.User{Email: op.Email}, nil)

		_, err := New(Config{Users: users}).OperatorSession(context.Background(), op)
		assert.Error(t, err)
	})
}

type fakeAccounts struct {
	taken      map[string]bool
	registered []identityapp.RegisterRequest
}

func (f *fakeAccounts) Register(_ context.Context, _ shared.Session, req identityapp.RegisterRequest) (*identityapp.TokenResult, error) {
	if f.taken[req.Email] {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "An account with this email already exists")
	}
	f.registered = append(f.registered, req)
	return &identityapp.TokenResult{User: &identityapp.UserDTO{ID: uuid.New(), Email: req.Email}}, nil
}

type fakeAddressBook struct {
	owners []uuid.UUID
}

func (f *fakeAddressBook) Create(_ context.Context, session shared.Session, req identityapp.AddressRequest) (*identityapp.AddressDTO, error) {
	f.owners = append(f.owners, *session.UserID)
	return &identityapp.AddressDTO{}, nil
}

func TestFakeCustomers_Deterministic(t *testing.T) {
	a := FakeCustomers(42, 5, "Customer123")
	b := FakeCustomers(42, 5, "Customer123")
	require.Len(t, a, 5)
	assert.Equal(t, a, b)

	seen := map[string]bool{}
	for _, c := range a {
		assert.False(t, seen[c.Register.Email], "duplicate email %s", c.Register.Email)
		seen[c.Register.Email] = true
		assert.Equal(t, "Customer123", c.Register.Password)
		assert.True(t, c.Address.IsDefault)
		assert.NotEmpty(t, c.Address.Street)
		assert.NotEmpty(t, c.Address.City)
		assert.NotEmpty(t, c.Address.Country)
		_, err := identity.NewUser(c.Register.Email, "Customer123", "", "")
		assert.NoError(t, err, "email %s must pass validation", c.Register.Email)
	}
}

func TestSeedCustomers_SkipsExisting(t *testing.T) {
	customers := FakeCustomers(7, 3, "Customer123")
	accounts := &fakeAccounts{taken: map[string]bool{customers[1].Register.Email: true}}
	book := &fakeAddressBook{}
	s := New(Config{Accounts: accounts, Addresses: book})

	created, err := s.SeedCustomers(context.Background(), customers)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Len(t, accounts.registered, 2)
	assert.Len(t, book.owners, 2)
	assert.NotEqual(t, uuid.Nil, book.owners[0])
}
