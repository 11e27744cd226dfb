package persistence

import (
	"context"

	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRepository implements inventory.StockRepository using GORM.
// Every write recomputes variants.stock_total in the same statement batch.
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) byVariant(db *gorm.DB, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	var rows []models.StockRecordModel
	if err := db.Model(&models.StockRecordModel{}).
		Select("stock_records.*").
		Joins("JOIN warehouses ON warehouses.id = stock_records.warehouse_id").
		Where("stock_records.variant_id = ?", variantID).
		Order("warehouses.code").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.StockRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindByVariant returns records ordered by warehouse code
func (r *GormStockRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	return r.byVariant(r.db.WithContext(ctx), variantID)
}

// FindByVariantForUpdate is FindByVariant with row locks on the stock
// records. Concurrent checkouts of the same variant queue here.
func (r *GormStockRepository) FindByVariantForUpdate(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	return r.byVariant(lockRows(r.db.WithContext(ctx), "stock_records"), variantID)
}

// Find returns the record of one variant in one warehouse
func (r *GormStockRepository) Find(ctx context.Context, warehouseID, variantID uuid.UUID) (*inventory.StockRecord, error) {
	var m models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND variant_id = ?", warehouseID, variantID).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	rec := m.ToDomain()
	return &rec, nil
}

// SaveAll writes the records and recomputes the variant's stock total
func (r *GormStockRepository) SaveAll(ctx context.Context, variantID uuid.UUID, records []inventory.StockRecord) error {
	for i := range records {
		if records[i].VariantID != variantID {
			return shared.NewDomainError(shared.CodeInvalidInput, "Stock record belongs to another variant")
		}
		if records[i].Quantity < 0 {
			return shared.NewDomainError(shared.CodeInvalidQuantity, "Stock quantity cannot be negative")
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range records {
			m := models.StockRecordModelFromDomain(&records[i])
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "variant_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
			}).Create(m).Error; err != nil {
				return err
			}
		}
		return tx.Exec(
			`UPDATE variants SET stock_total = (
				SELECT COALESCE(SUM(quantity), 0) FROM stock_records WHERE variant_id = ?
			) WHERE id = ?`, variantID, variantID).Error
	})
}

var _ inventory.StockRepository = (*GormStockRepository)(nil)
