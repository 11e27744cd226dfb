// Package inventory tracks per-warehouse stock of product variants.
package inventory

import (
	"strings"
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Warehouse is a stock location. Deduction walks warehouses in code order.
type Warehouse struct {
	shared.BaseEntity
	Code     string
	Name     string
	Address  string
	IsActive bool
}

// NewWarehouse creates an active warehouse
func NewWarehouse(code, name, address string) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Warehouse code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Warehouse name cannot be empty")
	}
	return &Warehouse{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       strings.TrimSpace(name),
		Address:    strings.TrimSpace(address),
		IsActive:   true,
	}, nil
}

// StockRecord is the on-hand quantity of one variant in one warehouse
type StockRecord struct {
	ID          uuid.UUID
	WarehouseID uuid.UUID
	VariantID   uuid.UUID
	Quantity    int
	UpdatedAt   time.Time
}

// NewStockRecord creates a record with a non-negative quantity
func NewStockRecord(warehouseID, variantID uuid.UUID, qty int) (*StockRecord, error) {
	if qty < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Stock quantity cannot be negative")
	}
	return &StockRecord{
		ID:          uuid.New(),
		WarehouseID: warehouseID,
		VariantID:   variantID,
		Quantity:    qty,
		UpdatedAt:   time.Now(),
	}, nil
}

// SetQuantity overwrites the on-hand quantity
func (r *StockRecord) SetQuantity(qty int) error {
	if qty < 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Stock quantity cannot be negative")
	}
	r.Quantity = qty
	r.UpdatedAt = time.Now()
	return nil
}

// Total sums the quantity over records
func Total(records []StockRecord) int {
	total := 0
	for _, r := range records {
		total += r.Quantity
	}
	return total
}

// Deduct removes qty from records in slice order, draining each record
// before moving to the next. The records must already be sorted by
// warehouse code. It returns the indexes of records that changed.
// Nothing is modified when the total is short.
func Deduct(records []StockRecord, qty int) ([]int, error) {
	if qty < 1 {
		return nil, shared.ErrInvalidQuantity
	}
	if Total(records) < qty {
		return nil, shared.ErrStockUnavailable
	}
	remaining := qty
	changed := make([]int, 0, len(records))
	now := time.Now()
	for i := range records {
		if remaining == 0 {
			break
		}
		if records[i].Quantity == 0 {
			continue
		}
		take := min(records[i].Quantity, remaining)
		records[i].Quantity -= take
		records[i].UpdatedAt = now
		remaining -= take
		changed = append(changed, i)
	}
	return changed, nil
}
