package handler

import (
	"context"

	identityapp "github.com/boutique/backend/internal/application/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AddressService is what the address book endpoints need
type AddressService interface {
	List(ctx context.Context, session shared.Session) ([]identityapp.AddressDTO, error)
	Get(ctx context.Context, session shared.Session, id uuid.UUID) (*identityapp.AddressDTO, error)
	Create(ctx context.Context, session shared.Session, req identityapp.AddressRequest) (*identityapp.AddressDTO, error)
	Update(ctx context.Context, session shared.Session, id uuid.UUID, req identityapp.AddressRequest) (*identityapp.AddressDTO, error)
	Delete(ctx context.Context, session shared.Session, id uuid.UUID) error
}

// AddressHandler manages the caller's address book
type AddressHandler struct {
	BaseHandler
	addresses AddressService
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addresses AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// List godoc
// @Summary      List the caller's addresses
// @Tags         addresses
// @Produce      json
// @Success      200 {object} APIResponse[[]identityapp.AddressDTO]
// @Security     BearerAuth
// @Router       /addresses [get]
func (h *AddressHandler) List(c *gin.Context) {
	list, err := h.addresses.List(c.Request.Context(), session(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Get godoc
// @Summary      Get one address
// @Tags         addresses
// @Produce      json
// @Param        id path string true "Address ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.AddressDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /addresses/{id} [get]
func (h *AddressHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	addr, err := h.addresses.Get(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, addr)
}

// Create godoc
// @Summary      Add an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Param        request body identityapp.AddressRequest true "Address"
// @Success      201 {object} APIResponse[identityapp.AddressDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /addresses [post]
func (h *AddressHandler) Create(c *gin.Context) {
	var req identityapp.AddressRequest
	if !h.bindJSON(c, &req) {
		return
	}
	addr, err := h.addresses.Create(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, addr)
}

// Update godoc
// @Summary      Replace an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Param        id      path string true "Address ID" format(uuid)
// @Param        request body identityapp.AddressRequest true "Address"
// @Success      200 {object} APIResponse[identityapp.AddressDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /addresses/{id} [put]
func (h *AddressHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req identityapp.AddressRequest
	if !h.bindJSON(c, &req) {
		return
	}
	addr, err := h.addresses.Update(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, addr)
}

// Delete godoc
// @Summary      Delete an address
// @Tags         addresses
// @Param        id path string true "Address ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /addresses/{id} [delete]
func (h *AddressHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.addresses.Delete(c.Request.Context(), session(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
