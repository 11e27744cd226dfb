package cart

import (
	"github.com/boutique/backend/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddLineRequest adds a variant to the cart
type AddLineRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
}

// SetQuantityRequest replaces a line quantity
type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// LineDTO is one cart line
type LineDTO struct {
	ID          uuid.UUID       `json:"id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Label       string          `json:"label"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartDTO is the full cart returned after every read or mutation
type CartDTO struct {
	ID        *uuid.UUID      `json:"id,omitempty"`
	Lines     []LineDTO       `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// ToCartDTO converts a cart. A nil cart is an empty one.
func ToCartDTO(c *cart.Cart) *CartDTO {
	dto := &CartDTO{Lines: make([]LineDTO, 0), Total: decimal.Zero}
	if c == nil {
		return dto
	}
	id := c.ID
	dto.ID = &id
	for _, l := range c.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:          l.ID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			SKU:         l.SKU,
			Label:       l.Label,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal(),
		})
	}
	dto.ItemCount = c.ItemCount()
	dto.Total = c.Total()
	return dto
}
