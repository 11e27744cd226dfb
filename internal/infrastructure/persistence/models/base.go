package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Row holds the columns every table shares
type Row struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *Row) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *Row) setEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// VersionedRow backs aggregates whose saves are checked against the stored
// version
type VersionedRow struct {
	Row
	Version int `gorm:"not null;default:1"`
}

func (m *VersionedRow) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version}
}

func (m *VersionedRow) setAggregate(a shared.BaseAggregateRoot) {
	m.setEntity(a.BaseEntity)
	m.Version = a.Version
}

// nullableString maps "" to NULL so unique indexes ignore unset values
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// All returns every model, in dependency order, for AutoMigrate in tests
// and local development
func All() []any {
	return []any{
		&UserModel{}, &AddressModel{},
		&AttributeModel{}, &AttributeValueModel{},
		&ProductModel{}, &ProductAttributeModel{}, &VariantModel{}, &VariantValueModel{}, &ProductImageModel{},
		&WarehouseModel{}, &StockRecordModel{},
		&CartModel{}, &CartLineModel{},
		&OrderModel{}, &OrderLineModel{},
		&PaymentModel{},
	}
}
