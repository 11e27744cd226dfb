// Package order holds the order aggregate and its lifecycle.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingAddress is the address as it was when the order was placed.
// Later edits to the customer's address book do not touch it.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	Apartment  string `json:"apartment,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone,omitempty"`
}

// Validate checks the required fields
func (a ShippingAddress) Validate() error {
	fields := []struct{ name, value string }{
		{"full_name", a.FullName}, {"street", a.Street}, {"city", a.City}, {"country", a.Country},
	}
	missing := make([]string, 0)
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return shared.NewDomainError("INVALID_ADDRESS", "Shipping address is missing "+strings.Join(missing, ", "))
	}
	return nil
}

// Line is an immutable snapshot of what was bought
type Line struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	VariantID    uuid.UUID
	ProductName  string
	SKU          string
	VariantLabel string
	UnitPrice    decimal.Decimal
	Quantity     int
}

// Subtotal returns UnitPrice * Quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineInput is one cart line handed to NewOrder
type LineInput struct {
	VariantID    uuid.UUID
	ProductName  string
	SKU          string
	VariantLabel string
	UnitPrice    decimal.Decimal
	Quantity     int
}

// Order is the purchase record created once at checkout. Its lines, address
// and total never change afterwards; only the status moves.
type Order struct {
	shared.BaseAggregateRoot
	Number          string
	UserID          uuid.UUID
	CustomerEmail   string
	ShippingAddress ShippingAddress
	Lines           []Line
	Total           decimal.Decimal
	Status          Status
	CancelReason    string
	PaidAt          *time.Time
	CancelledAt     *time.Time
}

// NewOrder creates a PENDING order from cart lines. The total is fixed here.
func NewOrder(userID uuid.UUID, email string, addr ShippingAddress, lines []LineInput) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeEmptyCart, "Cannot place an order from an empty cart")
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		CustomerEmail:     email,
		ShippingAddress:   addr,
		Lines:             make([]Line, 0, len(lines)),
		Status:            StatusPending,
	}
	o.Number = NewOrderNumber(o.CreatedAt, o.ID)

	total := decimal.Zero
	for _, in := range lines {
		if in.Quantity < 1 {
			return nil, shared.ErrInvalidQuantity
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		l := Line{
			ID:           uuid.New(),
			OrderID:      o.ID,
			VariantID:    in.VariantID,
			ProductName:  in.ProductName,
			SKU:          in.SKU,
			VariantLabel: in.VariantLabel,
			UnitPrice:    in.UnitPrice,
			Quantity:     in.Quantity,
		}
		o.Lines = append(o.Lines, l)
		total = total.Add(l.Subtotal())
	}
	o.Total = total

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// NewOrderNumber builds "BQ-YYYYMMDD-XXXXXXXX" from the creation date and
// the order ID, so numbers are never reused.
func NewOrderNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("BQ-%s-%s", at.Format("20060102"), suffix)
}

func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.TransitionError("Order", o.Status, target)
	}
	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// MarkInVerification records that a payment proof awaits review
func (o *Order) MarkInVerification() error {
	return o.transition(StatusInVerification)
}

// MarkPaid records that a payment for the order completed
func (o *Order) MarkPaid() error {
	if err := o.transition(StatusPaid); err != nil {
		return err
	}
	now := o.UpdatedAt
	o.PaidAt = &now
	return nil
}

// AdvanceTo is the operator move along PAID -> PREPARING -> SHIPPED -> DELIVERED
// or to CANCELLED. Payment-driven states cannot be set by hand.
func (o *Order) AdvanceTo(target Status, reason string) error {
	if target == StatusCancelled {
		return o.Cancel(reason)
	}
	if o.Status.IsSystemTransition(target) {
		return shared.TransitionError("Order", o.Status, target)
	}
	return o.transition(target)
}

// Cancel moves the order to CANCELLED from any state but DELIVERED
func (o *Order) Cancel(reason string) error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	now := o.UpdatedAt
	o.CancelledAt = &now
	o.CancelReason = reason
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// IsPayable reports whether a new payment may target this order
func (o *Order) IsPayable() bool {
	return o.Status == StatusPending || o.Status == StatusInVerification
}

// ItemCount returns the sum of line quantities
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// BelongsTo reports whether the order was placed by the user
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID == userID
}
