package persistence

import (
	"context"

	"github.com/boutique/backend/internal/domain/cart"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) load(ctx context.Context, query *gorm.DB) (*cart.Cart, error) {
	var m models.CartModel
	err := query.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindByOwner returns the cart of a user or session
func (r *GormCartRepository) FindByOwner(ctx context.Context, owner shared.CartOwner) (*cart.Cart, error) {
	if owner.UserID != nil {
		return r.load(ctx, r.db.Where("user_id = ?", *owner.UserID))
	}
	if owner.SessionKey == "" {
		return nil, shared.ErrNotFound
	}
	return r.load(ctx, r.db.Where("session_key = ? AND user_id IS NULL", owner.SessionKey))
}

// FindByID finds a cart by its ID
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	return r.load(ctx, r.db.Where("id = ?", id))
}

// Save creates or replaces the cart and its lines
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	m := models.CartModelFromDomain(c)
	lines := m.Lines
	m.Lines = nil
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", c.ID).Delete(&models.CartLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

// Delete removes a cart and its lines
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartLineModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CartModel{}, "id = ?", id).Error
	})
}

var _ cart.Repository = (*GormCartRepository)(nil)
