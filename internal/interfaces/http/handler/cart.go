package handler

import (
	"context"

	cartapp "github.com/boutique/backend/internal/application/cart"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartService is what the cart endpoints need
type CartService interface {
	GetCart(ctx context.Context, session shared.Session) (*cartapp.CartDTO, error)
	AddLine(ctx context.Context, session shared.Session, variantID uuid.UUID, qty int) (*cartapp.CartDTO, error)
	SetLineQuantity(ctx context.Context, session shared.Session, lineID uuid.UUID, qty int) (*cartapp.CartDTO, error)
	RemoveLine(ctx context.Context, session shared.Session, lineID uuid.UUID) (*cartapp.CartDTO, error)
}

// CartHandler serves the caller's cart. Anonymous callers are identified by
// X-Session-Key; signed-in callers by their token. Every response carries
// the whole cart.
type CartHandler struct {
	BaseHandler
	carts CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get godoc
// @Summary      Get the caller's cart
// @Tags         cart
// @Produce      json
// @Param        X-Session-Key header string false "Anonymous session key"
// @Success      200 {object} APIResponse[cartapp.CartDTO]
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), session(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddLine godoc
// @Summary      Add a variant to the cart
// @Description  Adding a variant already in the cart increases that line.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Session-Key header string                 false "Anonymous session key"
// @Param        request       body   cartapp.AddLineRequest true  "Line"
// @Success      200 {object} APIResponse[cartapp.CartDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cart/lines [post]
func (h *CartHandler) AddLine(c *gin.Context) {
	var req cartapp.AddLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.carts.AddLine(c.Request.Context(), session(c), req.VariantID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// SetQuantity godoc
// @Summary      Change a line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Session-Key header string                     false "Anonymous session key"
// @Param        id            path   string                     true  "Line ID" format(uuid)
// @Param        request       body   cartapp.SetQuantityRequest true  "Quantity"
// @Success      200 {object} APIResponse[cartapp.CartDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cart/lines/{id} [patch]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req cartapp.SetQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.carts.SetLineQuantity(c.Request.Context(), session(c), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveLine godoc
// @Summary      Remove a line
// @Tags         cart
// @Produce      json
// @Param        X-Session-Key header string false "Anonymous session key"
// @Param        id            path   string true  "Line ID" format(uuid)
// @Success      200 {object} APIResponse[cartapp.CartDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /cart/lines/{id} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveLine(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}
