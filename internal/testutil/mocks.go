// Package testutil provides testify mocks of the repository ports and other
// helpers shared by the application tests.
package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/boutique/backend/internal/domain/cart"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// one unpacks a (value, error) expectation; a nil value yields T's zero value
func one[T any](args mock.Arguments) (T, error) {
	v, _ := args.Get(0).(T)
	return v, args.Error(1)
}

// page unpacks a (rows, total, error) expectation
func page[T any](args mock.Arguments) ([]T, int64, error) {
	rows, _ := args.Get(0).([]T)
	total, _ := args.Get(1).(int64)
	return rows, total, args.Error(2)
}

// MockProductRepository mocks catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return one[*catalog.Product](m.Called(ctx, id))
}

func (m *MockProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return one[*catalog.Product](m.Called(ctx, slug))
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	return page[catalog.Product](m.Called(ctx, filter))
}

func (m *MockProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	return one[*catalog.Variant](m.Called(ctx, variantID))
}

func (m *MockProductRepository) FindVariants(ctx context.Context, variantIDs []uuid.UUID) ([]catalog.Variant, error) {
	return one[[]catalog.Variant](m.Called(ctx, variantIDs))
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	return one[bool](m.Called(ctx, slug, excludeID))
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeVariantID uuid.UUID) (bool, error) {
	return one[bool](m.Called(ctx, sku, excludeVariantID))
}

// MockAttributeRepository mocks catalog.AttributeRepository
type MockAttributeRepository struct {
	mock.Mock
}

func (m *MockAttributeRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Attribute, error) {
	return one[*catalog.Attribute](m.Called(ctx, id))
}

func (m *MockAttributeRepository) FindByName(ctx context.Context, name string) (*catalog.Attribute, error) {
	return one[*catalog.Attribute](m.Called(ctx, name))
}

func (m *MockAttributeRepository) FindAll(ctx context.Context) ([]catalog.Attribute, error) {
	return one[[]catalog.Attribute](m.Called(ctx))
}

func (m *MockAttributeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Attribute, error) {
	return one[[]catalog.Attribute](m.Called(ctx, ids))
}

func (m *MockAttributeRepository) FindValues(ctx context.Context, valueIDs []uuid.UUID) ([]catalog.AttributeValue, error) {
	return one[[]catalog.AttributeValue](m.Called(ctx, valueIDs))
}

func (m *MockAttributeRepository) Save(ctx context.Context, attr *catalog.Attribute) error {
	return m.Called(ctx, attr).Error(0)
}

// MockCartRepository mocks cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByOwner(ctx context.Context, owner shared.CartOwner) (*cart.Cart, error) {
	return one[*cart.Cart](m.Called(ctx, owner))
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	return one[*cart.Cart](m.Called(ctx, id))
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockOrderRepository mocks order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return one[*order.Order](m.Called(ctx, id))
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return one[*order.Order](m.Called(ctx, id))
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	return page[order.Order](m.Called(ctx, userID, filter))
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	return page[order.Order](m.Called(ctx, filter))
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockPaymentRepository mocks payment.Repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return one[*payment.Payment](m.Called(ctx, id))
}

func (m *MockPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return one[*payment.Payment](m.Called(ctx, id))
}

func (m *MockPaymentRepository) FindByGatewayRef(ctx context.Context, ref string) (*payment.Payment, error) {
	return one[*payment.Payment](m.Called(ctx, ref))
}

func (m *MockPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	return one[[]payment.Payment](m.Called(ctx, orderID))
}

func (m *MockPaymentRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]payment.Payment, int64, error) {
	return page[payment.Payment](m.Called(ctx, userID, filter))
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.Payment, int64, error) {
	return page[payment.Payment](m.Called(ctx, filter))
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

// MockStockRepository mocks inventory.StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	return one[[]inventory.StockRecord](m.Called(ctx, variantID))
}

func (m *MockStockRepository) FindByVariantForUpdate(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	return one[[]inventory.StockRecord](m.Called(ctx, variantID))
}

func (m *MockStockRepository) Find(ctx context.Context, warehouseID, variantID uuid.UUID) (*inventory.StockRecord, error) {
	return one[*inventory.StockRecord](m.Called(ctx, warehouseID, variantID))
}

func (m *MockStockRepository) SaveAll(ctx context.Context, variantID uuid.UUID, records []inventory.StockRecord) error {
	return m.Called(ctx, variantID, records).Error(0)
}

// MockWarehouseRepository mocks inventory.WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	return one[*inventory.Warehouse](m.Called(ctx, id))
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, code string) (*inventory.Warehouse, error) {
	return one[*inventory.Warehouse](m.Called(ctx, code))
}

func (m *MockWarehouseRepository) FindAll(ctx context.Context) ([]inventory.Warehouse, error) {
	return one[[]inventory.Warehouse](m.Called(ctx))
}

func (m *MockWarehouseRepository) Save(ctx context.Context, w *inventory.Warehouse) error {
	return m.Called(ctx, w).Error(0)
}

// MockUserRepository mocks identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return one[*identity.User](m.Called(ctx, id))
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return one[*identity.User](m.Called(ctx, email))
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return one[bool](m.Called(ctx, email))
}

func (m *MockUserRepository) Save(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

// MockAddressRepository mocks identity.AddressRepository
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Address, error) {
	return one[*identity.Address](m.Called(ctx, id))
}

func (m *MockAddressRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Address, error) {
	return one[[]identity.Address](m.Called(ctx, userID))
}

func (m *MockAddressRepository) Save(ctx context.Context, a *identity.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAddressRepository) ClearDefault(ctx context.Context, userID uuid.UUID, kind identity.AddressKind, keepID uuid.UUID) error {
	return m.Called(ctx, userID, kind, keepID).Error(0)
}

// MockGateway mocks payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	return one[*payment.Intent](m.Called(ctx, req))
}

func (m *MockGateway) GetIntentStatus(ctx context.Context, intentID string) (payment.IntentStatus, error) {
	return one[payment.IntentStatus](m.Called(ctx, intentID))
}

// MockWebhookVerifier mocks payment.WebhookVerifier
type MockWebhookVerifier struct {
	mock.Mock
}

func (m *MockWebhookVerifier) VerifyWebhook(payload []byte, signature string) (*payment.GatewayEvent, error) {
	return one[*payment.GatewayEvent](m.Called(payload, signature))
}

// MockObjectStorage mocks the object storage port
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	return one[string](m.Called(ctx, key, body, size, contentType))
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return one[string](m.Called(ctx, key, expiry))
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

// NewMockEventPublisher creates a MockEventPublisher. A non-nil err is
// returned from every Publish call.
func NewMockEventPublisher(err error) *MockEventPublisher {
	return &MockEventPublisher{err: err}
}

func (p *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

// EventTypes returns the types of every published event in order
func (p *MockEventPublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// MockIdempotencyStore mocks shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return one[bool](m.Called(ctx, id, ttl))
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}
