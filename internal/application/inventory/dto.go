package inventory

import (
	"time"

	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// CreateWarehouseRequest creates a stock location
type CreateWarehouseRequest struct {
	Code    string `json:"code" binding:"required,max=20,alphanum"`
	Name    string `json:"name" binding:"required,max=100"`
	Address string `json:"address" binding:"max=255"`
}

// SetStockRequest overwrites the on-hand quantity of a variant in a warehouse
type SetStockRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	VariantID   uuid.UUID `json:"variant_id" binding:"required"`
	Quantity    *int      `json:"quantity" binding:"required,min=0"`
}

// WarehouseDTO is a warehouse
type WarehouseDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// StockLevelDTO is the quantity of a variant in one warehouse
type StockLevelDTO struct {
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	WarehouseCode string    `json:"warehouse_code"`
	WarehouseName string    `json:"warehouse_name"`
	Quantity      int       `json:"quantity"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VariantStockDTO is the stock of a variant across warehouses
type VariantStockDTO struct {
	VariantID uuid.UUID       `json:"variant_id"`
	SKU       string          `json:"sku"`
	Total     int             `json:"total"`
	Levels    []StockLevelDTO `json:"levels"`
}

// ToWarehouseDTO converts a warehouse
func ToWarehouseDTO(w *inventory.Warehouse) WarehouseDTO {
	return WarehouseDTO{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
	}
}
