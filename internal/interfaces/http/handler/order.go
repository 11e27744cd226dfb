package handler

import (
	"context"

	orderapp "github.com/boutique/backend/internal/application/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutService turns the caller's cart into an order
type CheckoutService interface {
	Checkout(ctx context.Context, session shared.Session, req orderapp.CheckoutRequest) (*orderapp.OrderDTO, error)
}

// OrderService is what the order endpoints need
type OrderService interface {
	ListMyOrders(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[orderapp.SummaryDTO], error)
	GetMyOrder(ctx context.Context, session shared.Session, id uuid.UUID) (*orderapp.OrderDTO, error)
	ListOrders(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[orderapp.SummaryDTO], error)
	GetOrder(ctx context.Context, session shared.Session, id uuid.UUID) (*orderapp.OrderDTO, error)
	UpdateStatus(ctx context.Context, session shared.Session, id uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderDTO, error)
}

// OrderHandler serves checkout, the customer's orders and order administration
type OrderHandler struct {
	BaseHandler
	checkout CheckoutService
	orders   OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout CheckoutService, orders OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

// Checkout godoc
// @Summary      Place an order from the cart
// @Description  Validates stock for every line, deducts it across warehouses and
// @Description  empties the cart in one transaction. Shortages are listed in error.details.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CheckoutRequest true "Shipping address"
// @Success      201 {object} APIResponse[orderapp.OrderDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "EMPTY_CART or STOCK_UNAVAILABLE"
// @Security     BearerAuth
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req orderapp.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.checkout.Checkout(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListMine godoc
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]orderapp.SummaryDTO]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.orders.ListMyOrders(c.Request.Context(), session(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetMine godoc
// @Summary      Get one of the caller's orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetMyOrder(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @Summary      List all orders
// @Tags         admin-orders
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Order number or customer email"
// @Success      200 {object} APIResponse[[]orderapp.SummaryDTO]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.orders.ListOrders(c.Request.Context(), session(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Get godoc
// @Summary      Get an order with its allowed next states
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateStatus godoc
// @Summary      Move an order to another state
// @Description  Only forward transitions are accepted; CANCELLED is allowed until shipping.
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateStatusRequest true "Target state"
// @Success      200 {object} APIResponse[orderapp.OrderDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "INVALID_STATE_TRANSITION"
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
