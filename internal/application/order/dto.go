package order

import (
	"time"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest places an order from the caller's cart
type CheckoutRequest struct {
	AddressID uuid.UUID `json:"address_id" binding:"required"`
}

// UpdateStatusRequest moves an order as an operator
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PAID PREPARING SHIPPED DELIVERED CANCELLED IN_VERIFICATION PENDING"`
	Reason string `json:"reason" binding:"max=500"`
}

// LineDTO is one order line
type LineDTO struct {
	ID           uuid.UUID       `json:"id"`
	VariantID    uuid.UUID       `json:"variant_id"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	VariantLabel string          `json:"variant_label"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the full order
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Number          string                `json:"number"`
	UserID          uuid.UUID             `json:"user_id"`
	CustomerEmail   string                `json:"customer_email"`
	Status          string                `json:"status"`
	AllowedTargets  []string              `json:"allowed_targets,omitempty"`
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	Lines           []LineDTO             `json:"lines"`
	ItemCount       int                   `json:"item_count"`
	Total           decimal.Decimal       `json:"total"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// SummaryDTO is an order row in lists
type SummaryDTO struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	ItemCount     int             `json:"item_count"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToOrderDTO converts an order. withTargets adds the operator's next states.
func ToOrderDTO(o *order.Order, withTargets bool) *OrderDTO {
	dto := &OrderDTO{
		ID:              o.ID,
		Number:          o.Number,
		UserID:          o.UserID,
		CustomerEmail:   o.CustomerEmail,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		Lines:           make([]LineDTO, 0, len(o.Lines)),
		ItemCount:       o.ItemCount(),
		Total:           o.Total,
		CancelReason:    o.CancelReason,
		PaidAt:          o.PaidAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, l := range o.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:           l.ID,
			VariantID:    l.VariantID,
			ProductName:  l.ProductName,
			SKU:          l.SKU,
			VariantLabel: l.VariantLabel,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			Subtotal:     l.Subtotal(),
		})
	}
	if withTargets {
		for _, s := range o.Status.AdminTargets() {
			dto.AllowedTargets = append(dto.AllowedTargets, string(s))
		}
	}
	return dto
}

func toSummaries(orders []order.Order) []SummaryDTO {
	out := make([]SummaryDTO, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		out = append(out, SummaryDTO{
			ID:            o.ID,
			Number:        o.Number,
			CustomerEmail: o.CustomerEmail,
			Status:        string(o.Status),
			ItemCount:     o.ItemCount(),
			Total:         o.Total,
			CreatedAt:     o.CreatedAt,
		})
	}
	return out
}
