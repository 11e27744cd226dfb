package handler

import (
	"context"

	"github.com/boutique/backend/internal/application/common"
	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentService is what the customer payment endpoints need
type PaymentService interface {
	Create(ctx context.Context, session shared.Session, req paymentapp.CreatePaymentRequest) (*paymentapp.PaymentDTO, error)
	UploadProof(ctx context.Context, session shared.Session, paymentID uuid.UUID, file common.UploadedFile) (*paymentapp.PaymentDTO, error)
	Confirm(ctx context.Context, session shared.Session, paymentID uuid.UUID) (*paymentapp.PaymentDTO, error)
	ListMine(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[paymentapp.PaymentDTO], error)
}

// PaymentAdminService is what the operator payment endpoints need
type PaymentAdminService interface {
	List(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[paymentapp.PaymentDTO], error)
	Get(ctx context.Context, session shared.Session, id uuid.UUID) (*paymentapp.PaymentDTO, error)
	Create(ctx context.Context, session shared.Session, req paymentapp.AdminCreatePaymentRequest) (*paymentapp.PaymentDTO, error)
	Approve(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.ReviewRequest) (*paymentapp.PaymentDTO, error)
	Reject(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.ReviewRequest) (*paymentapp.PaymentDTO, error)
	Fail(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.FailRequest) (*paymentapp.PaymentDTO, error)
	UpdateNotes(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.NotesRequest) (*paymentapp.PaymentDTO, error)
}

// PaymentHandler serves customer payments
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create godoc
// @Summary      Start a payment for an order
// @Description  GATEWAY returns a client_secret for the card form. MANUAL_PROOF moves
// @Description  the order to IN_VERIFICATION once the proof is uploaded.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body paymentapp.CreatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "DUPLICATE_PAYMENT"
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse "UPSTREAM_UNAVAILABLE"
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req paymentapp.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.payments.Create(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// ListMine godoc
// @Summary      List the caller's payments
// @Tags         payments
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]paymentapp.PaymentDTO]
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.payments.ListMine(c.Request.Context(), session(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// UploadProof godoc
// @Summary      Upload a transfer receipt
// @Tags         payments
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true "Payment ID" format(uuid)
// @Param        file formData file   true "Receipt (jpeg, png, webp, pdf)"
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/proof [post]
func (h *PaymentHandler) UploadProof(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	file, closeFn, ok := h.formFile(c, "file")
	if !ok {
		return
	}
	defer closeFn()

	p, err := h.payments.UploadProof(c.Request.Context(), session(c), id, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Confirm godoc
// @Summary      Confirm a gateway payment
// @Description  Re-reads the intent from the gateway and completes the payment when it succeeded.
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.payments.Confirm(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// PaymentAdminHandler serves payment review for operators
type PaymentAdminHandler struct {
	BaseHandler
	admin PaymentAdminService
}

// NewPaymentAdminHandler creates a new PaymentAdminHandler
func NewPaymentAdminHandler(admin PaymentAdminService) *PaymentAdminHandler {
	return &PaymentAdminHandler{admin: admin}
}

// List godoc
// @Summary      List payments
// @Tags         admin-payments
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Status filter"
// @Success      200 {object} APIResponse[[]paymentapp.PaymentDTO]
// @Security     BearerAuth
// @Router       /admin/payments [get]
func (h *PaymentAdminHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.admin.List(c.Request.Context(), session(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Get godoc
// @Summary      Get a payment
// @Description  proof_url is a short-lived download link.
// @Tags         admin-payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/payments/{id} [get]
func (h *PaymentAdminHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.admin.Get(c.Request.Context(), session(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Create godoc
// @Summary      Record a manual payment for an order
// @Description  The payment is created COMPLETED and the order becomes PAID.
// @Tags         admin-payments
// @Accept       json
// @Produce      json
// @Param        request body paymentapp.AdminCreatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/payments [post]
func (h *PaymentAdminHandler) Create(c *gin.Context) {
	var req paymentapp.AdminCreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.admin.Create(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Approve godoc
// @Summary      Approve a manual payment
// @Tags         admin-payments
// @Accept       json
// @Produce      json
// @Param        id      path string                   true  "Payment ID" format(uuid)
// @Param        request body paymentapp.ReviewRequest false "Notes"
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/payments/{id}/approve [post]
func (h *PaymentAdminHandler) Approve(c *gin.Context) {
	h.review(c, h.admin.Approve)
}

// Reject godoc
// @Summary      Reject a manual payment
// @Description  The order returns to PENDING so the customer can pay again.
// @Tags         admin-payments
// @Accept       json
// @Produce      json
// @Param        id      path string                   true  "Payment ID" format(uuid)
// @Param        request body paymentapp.ReviewRequest false "Notes"
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/payments/{id}/reject [post]
func (h *PaymentAdminHandler) Reject(c *gin.Context) {
	h.review(c, h.admin.Reject)
}

type reviewFunc func(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.ReviewRequest) (*paymentapp.PaymentDTO, error)

func (h *PaymentAdminHandler) review(c *gin.Context, fn reviewFunc) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req paymentapp.ReviewRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	p, err := fn(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Fail godoc
// @Summary      Mark a pending gateway payment failed
// @Tags         admin-payments
// @Accept       json
// @Produce      json
// @Param        id      path string                 true  "Payment ID" format(uuid)
// @Param        request body paymentapp.FailRequest false "Reason"
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/payments/{id}/fail [post]
func (h *PaymentAdminHandler) Fail(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req paymentapp.FailRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	p, err := h.admin.Fail(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// UpdateNotes godoc
// @Summary      Replace the operator notes of a payment
// @Tags         admin-payments
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Payment ID" format(uuid)
// @Param        request body paymentapp.NotesRequest true "Notes"
// @Success      200 {object} APIResponse[paymentapp.PaymentDTO]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/payments/{id}/notes [patch]
func (h *PaymentAdminHandler) UpdateNotes(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req paymentapp.NotesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.admin.UpdateNotes(c.Request.Context(), session(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}
