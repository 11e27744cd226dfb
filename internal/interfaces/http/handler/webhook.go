package handler

import (
	"context"
	"io"
	"net/http"

	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/boutique/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Stripe notifications are small
const maxWebhookPayloadSize = 65536

// WebhookService applies gateway notifications
type WebhookService interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*paymentapp.WebhookResult, error)
}

// WebhookHandler receives gateway notifications. It is called by Stripe
// and carries no session.
type WebhookHandler struct {
	BaseHandler
	webhooks WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Stripe godoc
// @Summary      Receive a Stripe webhook
// @Description  payment_intent.succeeded completes the payment and marks the order PAID;
// @Description  payment_intent.payment_failed fails it. Deliveries are de-duplicated by event ID.
// @Description  A delivery that fails answers non-2xx so Stripe retries it.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe webhook signature"
// @Success      200 {object} APIResponse[paymentapp.WebhookResult]
// @Failure      400 {object} ErrorResponse "INVALID_SIGNATURE"
// @Failure      413 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Unknown payment intent"
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
			dto.ErrCodePayloadTooLarge, "Payload too large", middleware.GetRequestID(c)))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.HandleError(c, paymentapp.ErrInvalidSignature)
		return
	}

	result, err := h.webhooks.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
