// Package cart holds the cart use cases. Every mutation answers with the
// whole cart so clients can replace their copy.
package cart

import (
	"context"
	"errors"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/cart"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the cart use cases
type Service struct {
	carts    cart.Repository
	products catalog.ProductRepository
	txScope  common.TransactionScope
	logger   *zap.Logger
}

// NewService creates a new cart Service
func NewService(carts cart.Repository, products catalog.ProductRepository, txScope common.TransactionScope, logger *zap.Logger) *Service {
	return &Service{
		carts:    carts,
		products: products,
		txScope:  txScope,
		logger:   logger,
	}
}

// Snapshot turns a loaded variant into what the cart needs. A variant of an
// inactive product is not sellable.
func Snapshot(v *catalog.Variant) cart.VariantSnapshot {
	return cart.VariantSnapshot{
		VariantID:   v.ID,
		ProductName: v.ProductName,
		SKU:         v.SKU,
		Label:       v.Label(),
		UnitPrice:   v.UnitPrice(),
		StockTotal:  v.StockTotal,
		IsActive:    v.Sellable(),
	}
}

// find returns the session's cart or nil when it has none yet
func (s *Service) find(ctx context.Context, owner shared.CartOwner) (*cart.Cart, error) {
	c, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// reprice refreshes line prices from the live variants
func (s *Service) reprice(ctx context.Context, c *cart.Cart) error {
	if c == nil || len(c.Lines) == 0 {
		return nil
	}
	variants, err := s.products.FindVariants(ctx, c.VariantIDs())
	if err != nil {
		return err
	}
	live := make(map[uuid.UUID]cart.VariantSnapshot, len(variants))
	for i := range variants {
		live[variants[i].ID] = Snapshot(&variants[i])
	}
	c.Reprice(live)
	return nil
}

// GetCart returns the session's cart with current prices. A session
// without a cart gets an empty one; nothing is persisted.
func (s *Service) GetCart(ctx context.Context, session shared.Session) (*CartDTO, error) {
	owner, err := session.CartOwner()
	if err != nil {
		return nil, err
	}
	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.reprice(ctx, c); err != nil {
		return nil, err
	}
	return ToCartDTO(c), nil
}

// AddLine adds qty units of a variant, creating the cart on first use
func (s *Service) AddLine(ctx context.Context, session shared.Session, variantID uuid.UUID, qty int) (*CartDTO, error) {
	owner, err := session.CartOwner()
	if err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, shared.ErrInvalidQuantity
	}
	v, err := s.products.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Variant")
		}
		return nil, err
	}

	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if c, err = cart.New(owner); err != nil {
			return nil, err
		}
	}
	if _, err := c.AddLine(Snapshot(v), qty); err != nil {
		return nil, err
	}
	if err := s.reprice(ctx, c); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Debug("Cart line added",
		zap.String("cart_id", c.ID.String()),
		zap.String("sku", v.SKU),
		zap.Int("quantity", qty))
	return ToCartDTO(c), nil
}

func (s *Service) mutate(ctx context.Context, session shared.Session, fn func(c *cart.Cart) error) (*CartDTO, error) {
	owner, err := session.CartOwner()
	if err != nil {
		return nil, err
	}
	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.NotFoundError("Cart line")
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.reprice(ctx, c); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return ToCartDTO(c), nil
}

// SetLineQuantity replaces a line's quantity. Stock is not checked here.
func (s *Service) SetLineQuantity(ctx context.Context, session shared.Session, lineID uuid.UUID, qty int) (*CartDTO, error) {
	return s.mutate(ctx, session, func(c *cart.Cart) error {
		return c.SetLineQuantity(lineID, qty)
	})
}

// RemoveLine deletes a line
func (s *Service) RemoveLine(ctx context.Context, session shared.Session, lineID uuid.UUID) (*CartDTO, error) {
	return s.mutate(ctx, session, func(c *cart.Cart) error {
		return c.RemoveLine(lineID)
	})
}

// MergeAnonymousCart moves the lines of the session key's cart into the
// user's cart and deletes the anonymous cart. Missing or empty anonymous
// carts are a no-op.
func (s *Service) MergeAnonymousCart(ctx context.Context, sessionKey string, userID uuid.UUID) error {
	if sessionKey == "" || userID == uuid.Nil {
		return nil
	}
	return s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		carts := repos.Carts()
		anon, err := carts.FindByOwner(ctx, shared.CartOwner{SessionKey: sessionKey})
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}

		userOwner := shared.CartOwner{UserID: &userID}
		target, err := carts.FindByOwner(ctx, userOwner)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if target, err = cart.New(userOwner); err != nil {
				return err
			}
		}

		if len(anon.Lines) > 0 {
			target.MergeFrom(anon)
			if err := carts.Save(ctx, target); err != nil {
				return err
			}
		}
		if err := carts.Delete(ctx, anon.ID); err != nil {
			return err
		}

		s.logger.Info("Anonymous cart merged",
			zap.String("user_id", userID.String()),
			zap.String("cart_id", target.ID.String()),
			zap.Int("lines", len(target.Lines)))
		return nil
	})
}
