// Package payment holds the payment aggregate. A payment is one attempt to
// settle an order, either through the card gateway or by a manually
// reviewed transfer proof.
package payment

import (
	"strings"
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method is the payment protocol
type Method string

const (
	MethodGateway     Method = "GATEWAY"
	MethodManualProof Method = "MANUAL_PROOF"
)

// IsValid checks the method
func (m Method) IsValid() bool {
	return m == MethodGateway || m == MethodManualProof
}

// Status is the state of a single payment attempt
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// IsValid checks the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the payment is settled one way or the other.
// A failed attempt is retried with a new payment, never resurrected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo allows only PENDING -> COMPLETED and PENDING -> FAILED
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && (target == StatusCompleted || target == StatusFailed)
}

// Origin tells whether the customer or an operator created the payment
type Origin string

const (
	OriginCustomer Origin = "CUSTOMER"
	OriginOperator Origin = "OPERATOR"
)

// Payment is the payment aggregate root
type Payment struct {
	shared.BaseAggregateRoot
	OrderID       uuid.UUID
	Method        Method
	Origin        Origin
	Amount        decimal.Decimal
	Status        Status
	GatewayRef    string
	ClientSecret  string // returned once at creation, never stored
	ProofKey      string
	ProofURL      string
	AdminNotes    string
	FailureReason string
	CompletedAt   *time.Time
}

// NewPayment creates a PENDING payment. amount is the order total for
// customer payments; operators may pass a lower amount.
func NewPayment(orderID uuid.UUID, method Method, origin Origin, amount decimal.Decimal) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Unsupported payment method: "+string(method))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}
	if origin == "" {
		origin = OriginCustomer
	}
	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		Method:            method,
		Origin:            origin,
		Amount:            amount.Round(2),
		Status:            StatusPending,
	}
	p.AddDomainEvent(NewPaymentCreatedEvent(p))
	return p, nil
}

// AmountCents converts the amount to the gateway's minor units
func (p *Payment) AmountCents() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// BindGatewayIntent records the gateway correlation id of a GATEWAY payment
func (p *Payment) BindGatewayIntent(ref, clientSecret string) error {
	if p.Method != MethodGateway {
		return shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Only gateway payments carry a gateway reference")
	}
	if strings.TrimSpace(ref) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Gateway reference cannot be empty")
	}
	p.GatewayRef = ref
	p.ClientSecret = clientSecret
	p.UpdatedAt = time.Now()
	return nil
}

// AttachProof binds an uploaded proof image. It does not move the payment;
// only operator review does.
func (p *Payment) AttachProof(key, url string) error {
	if p.Method != MethodManualProof {
		return shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Proof can only be attached to manual-proof payments")
	}
	if p.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidStateTransition,
			"Proof can only be attached while the payment is PENDING, it is "+string(p.Status))
	}
	if strings.TrimSpace(url) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Proof reference cannot be empty")
	}
	p.ProofKey = key
	p.ProofURL = url
	p.UpdatedAt = time.Now()
	p.AddDomainEvent(NewPaymentProofAttachedEvent(p))
	return nil
}

// HasProof reports whether a proof image was uploaded
func (p *Payment) HasProof() bool {
	return p.ProofURL != ""
}

func (p *Payment) settle(target Status) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.TransitionError("Payment", p.Status, target)
	}
	now := time.Now()
	p.Status = target
	p.UpdatedAt = now
	if target == StatusCompleted {
		p.CompletedAt = &now
		p.AddDomainEvent(NewPaymentCompletedEvent(p))
	} else {
		p.AddDomainEvent(NewPaymentFailedEvent(p))
	}
	return nil
}

// Approve is the operator accepting a manual proof. Approving a payment that
// is already settled is an invalid transition, not a no-op.
func (p *Payment) Approve(notes string) error {
	if p.Method != MethodManualProof {
		return shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Only manual-proof payments are approved by an operator")
	}
	if err := p.settle(StatusCompleted); err != nil {
		return err
	}
	p.appendNotes(notes)
	return nil
}

// Reject is the operator refusing a manual proof
func (p *Payment) Reject(notes string) error {
	if p.Method != MethodManualProof {
		return shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Only manual-proof payments are rejected by an operator")
	}
	if err := p.settle(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = "rejected by operator"
	p.appendNotes(notes)
	return nil
}

// MarkCompleted records gateway success
func (p *Payment) MarkCompleted() error {
	if p.Method != MethodGateway {
		return shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Only gateway payments are confirmed by the gateway")
	}
	return p.settle(StatusCompleted)
}

// MarkFailed records an explicit failure signal: a gateway failure
// notification or an operator failing a stale gateway payment.
func (p *Payment) MarkFailed(reason string) error {
	if err := p.settle(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = reason
	return nil
}

// SetAdminNotes replaces the operator notes
func (p *Payment) SetAdminNotes(notes string) {
	p.AdminNotes = strings.TrimSpace(notes)
	p.UpdatedAt = time.Now()
}

func (p *Payment) appendNotes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return
	}
	if p.AdminNotes == "" {
		p.AdminNotes = notes
		return
	}
	p.AdminNotes += "\n" + notes
}

// Blocks reports whether this payment prevents another one on the same
// order: anything not FAILED does.
func (p *Payment) Blocks() bool {
	return p.Status != StatusFailed
}
