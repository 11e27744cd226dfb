package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// WarehouseModel is the persistence model for a stock location
type WarehouseModel struct {
	Row
	Code     string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(100);not null"`
	Address  string `gorm:"type:varchar(255)"`
	IsActive bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the model to a domain Warehouse
func (m *WarehouseModel) ToDomain() *inventory.Warehouse {
	return &inventory.Warehouse{
		BaseEntity: m.Row.entity(),
		Code:       m.Code,
		Name:       m.Name,
		Address:    m.Address,
		IsActive:   m.IsActive,
	}
}

// WarehouseModelFromDomain converts a domain Warehouse
func WarehouseModelFromDomain(w *inventory.Warehouse) *WarehouseModel {
	m := &WarehouseModel{
		Code:     w.Code,
		Name:     w.Name,
		Address:  w.Address,
		IsActive: w.IsActive,
	}
	m.setEntity(w.BaseEntity)
	return m
}

// StockRecordModel is the on-hand quantity of a variant in a warehouse
type StockRecordModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_warehouse_variant,priority:1"`
	VariantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_warehouse_variant,priority:2;index"`
	Quantity    int       `gorm:"not null;default:0;check:quantity >= 0"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// ToDomain converts the model to a domain StockRecord
func (m *StockRecordModel) ToDomain() inventory.StockRecord {
	return inventory.StockRecord{
		ID:          m.ID,
		WarehouseID: m.WarehouseID,
		VariantID:   m.VariantID,
		Quantity:    m.Quantity,
		UpdatedAt:   m.UpdatedAt,
	}
}

// StockRecordModelFromDomain converts a domain StockRecord
func StockRecordModelFromDomain(r *inventory.StockRecord) *StockRecordModel {
	return &StockRecordModel{
		ID:          r.ID,
		WarehouseID: r.WarehouseID,
		VariantID:   r.VariantID,
		Quantity:    r.Quantity,
		UpdatedAt:   r.UpdatedAt,
	}
}
