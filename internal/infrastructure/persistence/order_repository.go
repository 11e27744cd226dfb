package persistence

import (
	"context"
	"strings"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sku") })
}

// FindByID finds an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := preloadLines(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate loads the order with a row lock inside a transaction
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	db := lockRows(r.db.WithContext(ctx), "orders")
	if err := preloadLines(db).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindByUser lists a customer's orders, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("user_id = ?", userID)
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
		filter.OrderDir = "desc"
	}
	return r.list(query, filter)
}

// FindAll lists orders. Filters: "status", "user_id". Search matches the
// order number or customer email.
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if status, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", strings.ToUpper(status))
	}
	if userID, ok := filterString(filter, "user_id"); ok {
		id, err := uuid.Parse(userID)
		if err != nil {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "user_id must be a UUID")
		}
		query = query.Where("user_id = ?", id)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(LOWER(number) LIKE ? ESCAPE '\' OR LOWER(customer_email) LIKE ? ESCAPE '\')`, p, p)
	}
	return r.list(query, filter)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrderModel
	if err := preloadLines(paginate(query, "orders", filter, orderSort)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]order.Order, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates the order with its lines, or updates the status fields of an
// existing order. Lines are never rewritten.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	db := r.db.WithContext(ctx)
	result := db.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]any{
			"status":        m.Status,
			"cancel_reason": m.CancelReason,
			"paid_at":       m.PaidAt,
			"cancelled_at":  m.CancelledAt,
			"updated_at":    m.UpdatedAt,
			"version":       o.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		o.IncrementVersion()
		return nil
	}
	return insertUnlessStale(db, &models.OrderModel{}, o.ID, func() error {
		return db.Create(m).Error
	})
}

var _ order.Repository = (*GormOrderRepository)(nil)
