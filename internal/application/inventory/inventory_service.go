// Package inventory is the backoffice view of warehouses and stock levels.
package inventory

import (
	"context"
	"errors"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/catalog"
	"github.com/boutique/backend/internal/domain/inventory"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages warehouses and per-warehouse stock
type Service struct {
	warehouses inventory.WarehouseRepository
	stock      inventory.StockRepository
	products   catalog.ProductRepository
	txScope    common.TransactionScope
	logger     *zap.Logger
}

// NewService creates a new inventory Service
func NewService(
	warehouses inventory.WarehouseRepository,
	stock inventory.StockRepository,
	products catalog.ProductRepository,
	txScope common.TransactionScope,
	logger *zap.Logger,
) *Service {
	return &Service{
		warehouses: warehouses,
		stock:      stock,
		products:   products,
		txScope:    txScope,
		logger:     logger,
	}
}

// CreateWarehouse adds a stock location. Codes are unique.
func (s *Service) CreateWarehouse(ctx context.Context, session shared.Session, req CreateWarehouseRequest) (*WarehouseDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	w, err := inventory.NewWarehouse(req.Code, req.Name, req.Address)
	if err != nil {
		return nil, err
	}
	existing, err := s.warehouses.FindByCode(ctx, w.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Warehouse code "+w.Code+" is already in use")
	}
	if err := s.warehouses.Save(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info("Warehouse created", zap.String("warehouse_id", w.ID.String()), zap.String("code", w.Code))
	dto := ToWarehouseDTO(w)
	return &dto, nil
}

// ListWarehouses returns all warehouses in code order
func (s *Service) ListWarehouses(ctx context.Context, session shared.Session) ([]WarehouseDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	warehouses, err := s.warehouses.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WarehouseDTO, 0, len(warehouses))
	for i := range warehouses {
		out = append(out, ToWarehouseDTO(&warehouses[i]))
	}
	return out, nil
}

func (s *Service) findVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	v, err := s.products.FindVariant(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Variant")
		}
		return nil, err
	}
	return v, nil
}

// SetStock overwrites the quantity of a variant in one warehouse, creating
// the record on first use. The variant's stock total follows.
func (s *Service) SetStock(ctx context.Context, session shared.Session, req SetStockRequest) (*VariantStockDTO, error) {
	operatorID, err := session.RequireOperator()
	if err != nil {
		return nil, err
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Stock quantity cannot be negative")
	}
	w, err := s.warehouses.FindByID(ctx, req.WarehouseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Warehouse")
		}
		return nil, err
	}
	v, err := s.findVariant(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}

	var records []inventory.StockRecord
	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		records, err = repos.Stock().FindByVariantForUpdate(ctx, v.ID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range records {
			if records[i].WarehouseID == w.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			rec, err := inventory.NewStockRecord(w.ID, v.ID, *req.Quantity)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		} else if err := records[idx].SetQuantity(*req.Quantity); err != nil {
			return err
		}
		return repos.Stock().SaveAll(ctx, v.ID, records)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock level set",
		zap.String("variant_id", v.ID.String()),
		zap.String("warehouse", w.Code),
		zap.Int("quantity", *req.Quantity),
		zap.String("operator_id", operatorID.String()))
	return s.describe(ctx, v, records)
}

// GetVariantStock returns the stock of a variant in every warehouse that
// holds a record for it
func (s *Service) GetVariantStock(ctx context.Context, session shared.Session, variantID uuid.UUID) (*VariantStockDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	v, err := s.findVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	records, err := s.stock.FindByVariant(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, v, records)
}

func (s *Service) describe(ctx context.Context, v *catalog.Variant, records []inventory.StockRecord) (*VariantStockDTO, error) {
	warehouses, err := s.warehouses.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inventory.Warehouse, len(warehouses))
	for i := range warehouses {
		byID[warehouses[i].ID] = &warehouses[i]
	}

	dto := &VariantStockDTO{
		VariantID: v.ID,
		SKU:       v.SKU,
		Total:     inventory.Total(records),
		Levels:    make([]StockLevelDTO, 0, len(records)),
	}
	for _, r := range records {
		level := StockLevelDTO{WarehouseID: r.WarehouseID, Quantity: r.Quantity, UpdatedAt: r.UpdatedAt}
		if w, ok := byID[r.WarehouseID]; ok {
			level.WarehouseCode = w.Code
			level.WarehouseName = w.Name
		}
		dto.Levels = append(dto.Levels, level)
	}
	return dto, nil
}
