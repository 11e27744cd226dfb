package payment

import (
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentCreated       = "PaymentCreated"
	EventTypePaymentProofAttached = "PaymentProofAttached"
	EventTypePaymentCompleted     = "PaymentCompleted"
	EventTypePaymentFailed        = "PaymentFailed"
)

// PaymentCreatedEvent is raised when a payment attempt starts
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Method    Method          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Method:          p.Method,
		Amount:          p.Amount,
	}
}

// PaymentProofAttachedEvent is raised when a customer uploads a transfer proof
type PaymentProofAttachedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID `json:"payment_id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProofURL  string    `json:"proof_url"`
}

// NewPaymentProofAttachedEvent creates a new PaymentProofAttachedEvent
func NewPaymentProofAttachedEvent(p *Payment) *PaymentProofAttachedEvent {
	return &PaymentProofAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentProofAttached, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		ProofURL:        p.ProofURL,
	}
}

// PaymentCompletedEvent is raised when a payment settles successfully
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Method    Method          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Method:          p.Method,
		Amount:          p.Amount,
	}
}

// PaymentFailedEvent is raised when a payment is rejected or fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID `json:"payment_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Method    Method    `json:"method"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Method:          p.Method,
	}
}
