package handler

import (
	"context"

	inventoryapp "github.com/boutique/backend/internal/application/inventory"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryService is what the stock administration endpoints need
type InventoryService interface {
	CreateWarehouse(ctx context.Context, session shared.Session, req inventoryapp.CreateWarehouseRequest) (*inventoryapp.WarehouseDTO, error)
	ListWarehouses(ctx context.Context, session shared.Session) ([]inventoryapp.WarehouseDTO, error)
	SetStock(ctx context.Context, session shared.Session, req inventoryapp.SetStockRequest) (*inventoryapp.VariantStockDTO, error)
	GetVariantStock(ctx context.Context, session shared.Session, variantID uuid.UUID) (*inventoryapp.VariantStockDTO, error)
}

// InventoryHandler serves warehouses and stock levels
type InventoryHandler struct {
	BaseHandler
	inventory InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// ListWarehouses godoc
// @Summary      List warehouses in deduction order
// @Tags         admin-inventory
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.WarehouseDTO]
// @Security     BearerAuth
// @Router       /admin/warehouses [get]
func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	list, err := h.inventory.ListWarehouses(c.Request.Context(), session(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// CreateWarehouse godoc
// @Summary      Create a warehouse
// @Tags         admin-inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateWarehouseRequest true "Warehouse"
// @Success      201 {object} APIResponse[inventoryapp.WarehouseDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/warehouses [post]
func (h *InventoryHandler) CreateWarehouse(c *gin.Context) {
	var req inventoryapp.CreateWarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	w, err := h.inventory.CreateWarehouse(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, w)
}

// SetStock godoc
// @Summary      Set the on-hand quantity of a variant in a warehouse
// @Tags         admin-inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.SetStockRequest true "Stock level"
// @Success      200 {object} APIResponse[inventoryapp.VariantStockDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/stock [put]
func (h *InventoryHandler) SetStock(c *gin.Context) {
	var req inventoryapp.SetStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	stock, err := h.inventory.SetStock(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// GetVariantStock godoc
// @Summary      Get the stock of a variant per warehouse
// @Tags         admin-inventory
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.VariantStockDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/variants/{id}/stock [get]
func (h *InventoryHandler) GetVariantStock(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	stock, err := h.inventory.GetVariantStock(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}
