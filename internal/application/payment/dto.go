package payment

import (
	"time"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest starts a customer payment for an order
type CreatePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Method  string    `json:"method" binding:"required,oneof=GATEWAY MANUAL_PROOF"`
}

// AdminCreatePaymentRequest records a manual payment on behalf of a customer.
// Amount defaults to the order total.
type AdminCreatePaymentRequest struct {
	OrderID uuid.UUID        `json:"order_id" binding:"required"`
	Amount  *decimal.Decimal `json:"amount"`
	Notes   string           `json:"notes" binding:"max=1000"`
}

// ReviewRequest carries the operator's notes for approve/reject
type ReviewRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// FailRequest marks a stale gateway payment failed
type FailRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// NotesRequest replaces the operator notes
type NotesRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// PaymentDTO is the payment as returned by the API. ClientSecret is only
// set in the response that created a gateway payment.
type PaymentDTO struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Method        string          `json:"method"`
	Origin        string          `json:"origin"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	GatewayRef    string          `json:"gateway_ref,omitempty"`
	ClientSecret  string          `json:"client_secret,omitempty"`
	ProofURL      string          `json:"proof_url,omitempty"`
	AdminNotes    string          `json:"admin_notes,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToPaymentDTO converts a payment
func ToPaymentDTO(p *payment.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        string(p.Method),
		Origin:        string(p.Origin),
		Amount:        p.Amount,
		Status:        string(p.Status),
		GatewayRef:    p.GatewayRef,
		ClientSecret:  p.ClientSecret,
		ProofURL:      p.ProofURL,
		AdminNotes:    p.AdminNotes,
		FailureReason: p.FailureReason,
		CompletedAt:   p.CompletedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPaymentDTOs(payments []payment.Payment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		dto := ToPaymentDTO(&payments[i])
		dto.ClientSecret = ""
		out = append(out, *dto)
	}
	return out
}
