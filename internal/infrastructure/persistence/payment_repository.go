package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) first(query *gorm.DB) (*payment.Payment, error) {
	var m models.PaymentModel
	if err := query.First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate loads the payment with a row lock inside a transaction
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.first(lockRows(r.db.WithContext(ctx), "payments").Where("id = ?", id))
}

// FindByGatewayRef finds the payment bound to a gateway intent
func (r *GormPaymentRepository) FindByGatewayRef(ctx context.Context, ref string) (*payment.Payment, error) {
	if ref == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(r.db.WithContext(ctx).Where("gateway_ref = ?", ref))
}

// FindByOrder lists every attempt for an order, oldest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindByUser lists payments of orders placed by a user
func (r *GormPaymentRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]payment.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.user_id = ?", userID)
	return r.list(query, filter)
}

// FindAll lists payments. Filters: "order_id", "method", "status".
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if orderID, ok := filterString(filter, "order_id"); ok {
		id, err := uuid.Parse(orderID)
		if err != nil {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "order_id must be a UUID")
		}
		query = query.Where("payments.order_id = ?", id)
	}
	if method, ok := filterString(filter, "method"); ok {
		query = query.Where("payments.method = ?", strings.ToUpper(method))
	}
	if status, ok := filterString(filter, "status"); ok {
		query = query.Where("payments.status = ?", strings.ToUpper(status))
	}
	return r.list(query, filter)
}

func (r *GormPaymentRepository) list(query *gorm.DB, filter shared.Filter) ([]payment.Payment, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PaymentModel
	if err := paginate(query.Select("payments.*"), "payments", filter, paymentSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

// Save creates or updates a payment. A second PENDING or COMPLETED payment
// for an order violates idx_payments_order_active and surfaces as
// DUPLICATE_PAYMENT.
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	m := models.PaymentModelFromDomain(p)
	db := r.db.WithContext(ctx)
	m.Version = p.Version + 1
	result := db.Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Select("*").Omit("id", "created_at").
		Updates(m)
	if result.Error != nil {
		return duplicatePayment(result.Error)
	}
	if result.RowsAffected > 0 {
		p.IncrementVersion()
		return nil
	}
	m.Version = p.Version
	return insertUnlessStale(db, &models.PaymentModel{}, p.ID, func() error {
		return duplicatePayment(db.Create(m).Error)
	})
}

func duplicatePayment(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrDuplicatePayment
	}
	return err
}

func paymentsToDomain(rows []models.PaymentModel) []payment.Payment {
	out := make([]payment.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ payment.Repository = (*GormPaymentRepository)(nil)
