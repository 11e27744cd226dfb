package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormStockLevelSource counts variants straight from the variants table,
// whose stock_total is kept in sync by the stock repository.
type GormStockLevelSource struct {
	db *gorm.DB
}

// NewGormStockLevelSource creates a stock level source
func NewGormStockLevelSource(db *gorm.DB) *GormStockLevelSource {
	return &GormStockLevelSource{db: db}
}

// StockLevels implements StockLevelSource
func (s *GormStockLevelSource) StockLevels(ctx context.Context, lowStockThreshold int) (StockLevels, error) {
	var row struct {
		OutOfStock int64
		LowStock   int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE stock_total = 0)                   AS out_of_stock,
			COUNT(*) FILTER (WHERE stock_total > 0 AND stock_total <= ?) AS low_stock
		FROM variants
		WHERE is_active`, lowStockThreshold).Scan(&row).Error
	if err != nil {
		return StockLevels{}, err
	}
	return StockLevels{OutOfStock: row.OutOfStock, LowStock: row.LowStock}, nil
}
