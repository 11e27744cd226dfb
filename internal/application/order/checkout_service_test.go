package order

import (
	"context"
	"errors"
	"testing"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/cart"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMetrics struct {
	common.NopMetrics
	completed int
	rejected  []string
}

func (m *recordingMetrics) CheckoutCompleted(context.Context, decimal.Decimal, int) { m.completed++ }
func (m *recordingMetrics) CheckoutRejected(_ context.Context, reason string)      { m.rejected = append(m.rejected, reason) }

type checkoutFixture struct {
	svc       *CheckoutService
	addresses *testutil.MockAddressRepository
	carts     *testutil.MockCartRepository
	orders    *testutil.MockOrderRepository
	products  *testutil.MockProductRepository
	stock     *testutil.MockStockRepository
	publisher *testutil.MockEventPublisher
	metrics   *recordingMetrics
	polo      *testutil.PoloFixture
	userID    uuid.UUID
	session   shared.Session
	address   *identity.Address
	cart      *cart.Cart
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		addresses: new(testutil.MockAddressRepository),
		carts:     new(testutil.MockCartRepository),
		orders:    new(testutil.MockOrderRepository),
		products:  new(testutil.MockProductRepository),
		stock:     new(testutil.MockStockRepository),
		publisher: testutil.NewMockEventPublisher(nil),
		metrics:   &recordingMetrics{},
		polo:      testutil.NewPoloFixture(),
		userID:    uuid.New(),
	}
	f.session = shared.NewUserSession(f.userID, "ana@example.com", false, "")

	addr, err := identity.NewAddress(f.userID, identity.AddressInput{
		FullName: "Ana Pérez", Street: "Av. Larco 123", City: "Lima", Region: "Lima", Country: "PE",
	})
	require.NoError(t, err)
	f.address = addr

	c, err := cart.New(shared.CartOwner{UserID: &f.userID})
	require.NoError(t, err)
	f.cart = c

	tx := common.NewNoOpTransactionScope(f.carts, f.orders, nil, f.products, f.stock)
	f.svc = NewCheckoutService(f.addresses, tx, f.metrics, zap.NewNop())
	f.svc.SetEventPublisher(f.publisher)

	f.addresses.On("FindByID", mock.Anything, addr.ID).Return(addr, nil)
	f.carts.On("FindByOwner", mock.Anything, shared.CartOwner{UserID: &f.userID}).Return(c, nil)
	return f
}

func (f *checkoutFixture) addLine(t *testing.T, sku string, qty int) *catalog.Variant {
	t.Helper()
	v := f.polo.Variant(sku)
	snap := cart.VariantSnapshot{
		VariantID: v.ID, ProductName: v.ProductName, SKU: v.SKU, Label: v.Label(),
		UnitPrice: v.UnitPrice(), StockTotal: 100, IsActive: true,
	}
	_, err := f.cart.AddLine(snap, qty)
	require.NoError(t, err)
	return v
}

func stockRecords(variantID uuid.UUID, qtys ...int) []inventory.StockRecord {
	out := make([]inventory.StockRecord, 0, len(qtys))
	for _, q := range qtys {
		out = append(out, inventory.StockRecord{ID: uuid.New(), WarehouseID: uuid.New(), VariantID: variantID, Quantity: q})
	}
	return out
}

func TestCheckout_PlacesOrderAndDeductsStock(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	negro := f.addLine(t, "POLO-S-NEGRO", 3)
	blanco := f.addLine(t, "POLO-M-BLANCO", 2)

	f.products.On("FindVariants", ctx, mock.Anything).Return([]catalog.Variant{*negro, *blanco}, nil)
	f.stock.On("FindByVariantForUpdate", ctx, negro.ID).Return(stockRecords(negro.ID, 2, 5), nil)
	f.stock.On("FindByVariantForUpdate", ctx, blanco.ID).Return(stockRecords(blanco.ID, 10), nil)
	f.stock.On("SaveAll", ctx, negro.ID, mock.MatchedBy(func(r []inventory.StockRecord) bool {
		return r[0].Quantity == 0 && r[1].Quantity == 4
	})).Return(nil).Once()
	f.stock.On("SaveAll", ctx, blanco.ID, mock.MatchedBy(func(r []inventory.StockRecord) bool {
		return r[0].Quantity == 8
	})).Return(nil).Once()
	f.orders.On("Save", ctx, mock.AnythingOfType("*order.Order")).Return(nil)
	f.carts.On("Save", ctx, f.cart).Return(nil)

	o, err := f.svc.Checkout(ctx, f.session, CheckoutRequest{AddressID: f.address.ID})
	require.NoError(t, err)

	assert.Equal(t, string(order.StatusPending), o.Status)
	assert.Equal(t, "229.5", o.Total.String())
	assert.Equal(t, 5, o.ItemCount)
	assert.Equal(t, "Av. Larco 123", o.ShippingAddress.Street)
	assert.Equal(t, "ana@example.com", o.CustomerEmail)
	assert.Regexp(t, `^BQ-\d{8}-[0-9A-F]{8}$`, o.Number)
	assert.True(t, f.cart.IsEmpty())
	assert.Equal(t, []string{order.EventTypeOrderCreated}, f.publisher.EventTypes())
	assert.Equal(t, 1, f.metrics.completed)
	f.stock.AssertExpectations(t)
}

func TestCheckout_CollectsEveryShortage(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	negro := f.addLine(t, "POLO-S-NEGRO", 3)
	blanco := f.addLine(t, "POLO-M-BLANCO", 2)
	negro.IsActive = false

	f.products.On("FindVariants", ctx, mock.Anything).Return([]catalog.Variant{*negro, *blanco}, nil)
	f.stock.On("FindByVariantForUpdate", ctx, blanco.ID).Return(stockRecords(blanco.ID, 1), nil)

	_, err := f.svc.Checkout(ctx, f.session, CheckoutRequest{AddressID: f.address.ID})
	require.ErrorIs(t, err, shared.ErrStockUnavailable)

	shortages := shared.Shortages(err)
	require.Len(t, shortages, 2)
	reasons := map[string]shared.LineShortage{}
	for _, s := range shortages {
		reasons[s.SKU] = s
	}
	assert.Equal(t, shared.ShortageVariantInactive, reasons["POLO-S-NEGRO"].Reason)
	assert.Equal(t, 1, reasons["POLO-M-BLANCO"].Available)

	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.stock.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, f.cart.IsEmpty())
	assert.Equal(t, []string{shared.CodeStockUnavailable}, f.metrics.rejected)
}

func TestCheckout_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newCheckoutFixture(t)
		_, err := f.svc.Checkout(ctx, f.session, CheckoutRequest{AddressID: f.address.ID})
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.CodeEmptyCart, de.Code)
	})

	t.Run("address of another customer", func(t *testing.T) {
		f := newCheckoutFixture(t)
		other, err := identity.NewAddress(uuid.New(), identity.AddressInput{
			FullName: "Luis", Street: "Jr. Unión 1", City: "Lima", Country: "PE",
		})
		require.NoError(t, err)
		f.addresses.On("FindByID", ctx, other.ID).Return(other, nil)

		_, err = f.svc.Checkout(ctx, f.session, CheckoutRequest{AddressID: other.ID})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		f := newCheckoutFixture(t)
		_, err := f.svc.Checkout(ctx, shared.NewAnonymousSession("k"), CheckoutRequest{AddressID: f.address.ID})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("order save failure leaves the cart intact", func(t *testing.T) {
		f := newCheckoutFixture(t)
		blanco := f.addLine(t, "POLO-M-BLANCO", 1)
		f.products.On("FindVariants", ctx, mock.Anything).Return([]catalog.Variant{*blanco}, nil)
		f.stock.On("FindByVariantForUpdate", ctx, blanco.ID).Return(stockRecords(blanco.ID, 4), nil)
		f.stock.On("SaveAll", ctx, blanco.ID, mock.Anything).Return(nil)
		f.orders.On("Save", ctx, mock.Anything).Return(errors.New("connection reset"))

		_, err := f.svc.Checkout(ctx, f.session, CheckoutRequest{AddressID: f.address.ID})
		require.Error(t, err)
		assert.False(t, f.cart.IsEmpty())
		f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.EventTypes())
	})
}

func TestCheckout_SnapshotsLivePrice(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	negro := f.addLine(t, "POLO-S-NEGRO", 1)

	live := *negro
	live.Price = decimal.RequireFromString("55.00")
	f.products.On("FindVariants", ctx, mock.Anything).Return([]catalog.Variant{live}, nil)
	f.stock.On("FindByVariantForUpdate", ctx, negro.ID).Return(stockRecords(negro.ID, 1), nil)
	f.stock.On("SaveAll", ctx, negro.ID, mock.Anything).Return(nil)
	f.orders.On("Save", ctx, mock.Anything).Return(nil)
	f.carts.On("Save", ctx, f.cart).Return(nil)

	o, err := f.svc.Checkout(ctx, f.session, CheckoutRequest{AddressID: f.address.ID})
	require.NoError(t, err)
	assert.Equal(t, "55", o.Lines[0].UnitPrice.String())
	assert.Equal(t, "55", o.Total.String())
}
