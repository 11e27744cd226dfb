// Package common holds ports shared by the application services.
package common

import (
	"context"

	"github.com/boutique/backend/internal/domain/cart"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
)

// TransactionScope runs a unit of work atomically. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories that take part in
// checkout and payment settlement. Everything returned shares one
// transaction.
type TransactionalRepositories interface {
	Carts() cart.Repository
	Orders() order.Repository
	Payments() payment.Repository
	Products() catalog.ProductRepository
	Stock() inventory.StockRepository
}

// NoOpTransactionScope hands out plain repositories without a transaction.
// Used by tests and by in-memory wiring.
type NoOpTransactionScope struct {
	carts    cart.Repository
	orders   order.Repository
	payments payment.Repository
	products catalog.ProductRepository
	stock    inventory.StockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(
	carts cart.Repository,
	orders order.Repository,
	payments payment.Repository,
	products catalog.ProductRepository,
	stock inventory.StockRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		carts:    carts,
		orders:   orders,
		payments: payments,
		products: products,
		stock:    stock,
	}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Carts() cart.Repository              { return s.carts }
func (s *NoOpTransactionScope) Orders() order.Repository            { return s.orders }
func (s *NoOpTransactionScope) Payments() payment.Repository        { return s.payments }
func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.products }
func (s *NoOpTransactionScope) Stock() inventory.StockRepository    { return s.stock }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
