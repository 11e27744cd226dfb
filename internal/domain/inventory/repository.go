package inventory

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines warehouse persistence
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
	// FindAll returns warehouses ordered by code
	FindAll(ctx context.Context) ([]Warehouse, error)
	Save(ctx context.Context, w *Warehouse) error
}

// StockRepository defines stock record persistence. Every write also
// refreshes the variant's cached stock total.
type StockRepository interface {
	// FindByVariant returns records ordered by warehouse code
	FindByVariant(ctx context.Context, variantID uuid.UUID) ([]StockRecord, error)

	// FindByVariantForUpdate is FindByVariant with row locks, for use
	// inside a transaction
	FindByVariantForUpdate(ctx context.Context, variantID uuid.UUID) ([]StockRecord, error)

	// Find returns the record of one variant in one warehouse
	Find(ctx context.Context, warehouseID, variantID uuid.UUID) (*StockRecord, error)

	// SaveAll writes the records and recomputes the variant's stock total
	SaveAll(ctx context.Context, variantID uuid.UUID, records []StockRecord) error
}
