package order

import (
	"context"
	"errors"
	"sort"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/cart"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService turns a cart into an order. Stock is verified and
// deducted in the same transaction that creates the order, so a failure
// leaves neither an order nor a stock change behind.
type CheckoutService struct {
	addresses      identity.AddressRepository
	txScope        common.TransactionScope
	eventPublisher shared.EventPublisher
	metrics        common.Metrics
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(addresses identity.AddressRepository, txScope common.TransactionScope, metrics common.Metrics, logger *zap.Logger) *CheckoutService {
	if metrics == nil {
		metrics = common.NopMetrics{}
	}
	return &CheckoutService{
		addresses: addresses,
		txScope:   txScope,
		metrics:   metrics,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Checkout places an order from the caller's cart, shipping to one of the
// caller's saved addresses.
func (s *CheckoutService) Checkout(ctx context.Context, session shared.Session, req CheckoutRequest) (*OrderDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}

	addr, err := s.addresses.FindByID(ctx, req.AddressID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Address")
		}
		return nil, err
	}
	if !addr.BelongsTo(userID) {
		return nil, shared.NotFoundError("Address")
	}

	var placed *order.Order
	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		c, err := repos.Carts().FindByOwner(ctx, shared.CartOwner{UserID: &userID})
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if c == nil || c.IsEmpty() {
			return shared.NewDomainError(shared.CodeEmptyCart, "Cannot check out an empty cart")
		}

		lines, err := reserveStock(ctx, repos, c)
		if err != nil {
			return err
		}

		o, err := order.NewOrder(userID, session.Email, addr.Snapshot(), lines)
		if err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}

		c.Clear()
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		reason := "error"
		var de *shared.DomainError
		if errors.As(err, &de) {
			reason = de.Code
		}
		s.metrics.CheckoutRejected(ctx, reason)
		s.logger.Warn("Checkout rejected",
			zap.String("user_id", userID.String()),
			zap.String("reason", reason),
			zap.Error(err))
		return nil, err
	}

	common.PublishEvents(ctx, s.eventPublisher, s.logger, placed)
	s.metrics.CheckoutCompleted(ctx, placed.Total, placed.ItemCount())
	s.logger.Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("number", placed.Number),
		zap.String("total", placed.Total.String()))
	return ToOrderDTO(placed, false), nil
}

// reserveStock checks every line against locked stock rows, collecting all
// shortages before failing, then deducts each line across warehouses in
// warehouse code order. Rows are locked in variant ID order.
func reserveStock(ctx context.Context, repos common.TransactionalRepositories, c *cart.Cart) ([]order.LineInput, error) {
	cartLines := append([]cart.Line(nil), c.Lines...)
	sort.Slice(cartLines, func(i, j int) bool {
		return cartLines[i].VariantID.String() < cartLines[j].VariantID.String()
	})

	variants, err := repos.Products().FindVariants(ctx, c.VariantIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Variant, len(variants))
	for i := range variants {
		byID[variants[i].ID] = &variants[i]
	}

	stock := make(map[uuid.UUID][]inventory.StockRecord, len(cartLines))
	shortages := make([]shared.LineShortage, 0)
	for _, l := range cartLines {
		v, ok := byID[l.VariantID]
		if !ok || !v.Sellable() {
			shortages = append(shortages, shared.LineShortage{
				VariantID: l.VariantID, SKU: l.SKU, Requested: l.Quantity,
				Reason: shared.ShortageVariantInactive,
			})
			continue
		}
		records, err := repos.Stock().FindByVariantForUpdate(ctx, l.VariantID)
		if err != nil {
			return nil, err
		}
		if available := inventory.Total(records); available < l.Quantity {
			shortages = append(shortages, shared.LineShortage{
				VariantID: l.VariantID, SKU: v.SKU, Requested: l.Quantity, Available: available,
				Reason: shared.ShortageInsufficientStock,
			})
			continue
		}
		stock[l.VariantID] = records
	}
	if len(shortages) > 0 {
		return nil, shared.NewStockUnavailableError(shortages...)
	}

	inputs := make([]order.LineInput, 0, len(c.Lines))
	for _, l := range c.Lines {
		v := byID[l.VariantID]
		records := stock[l.VariantID]
		if _, err := inventory.Deduct(records, l.Quantity); err != nil {
			return nil, err
		}
		if err := repos.Stock().SaveAll(ctx, l.VariantID, records); err != nil {
			return nil, err
		}
		inputs = append(inputs, order.LineInput{
			VariantID:    v.ID,
			ProductName:  v.ProductName,
			SKU:          v.SKU,
			VariantLabel: v.Label(),
			UnitPrice:    v.UnitPrice(),
			Quantity:     l.Quantity,
		})
	}
	return inputs, nil
}
