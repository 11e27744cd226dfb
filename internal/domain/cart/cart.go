// Package cart holds the shopping cart aggregate. A cart belongs either to a
// signed-in user or to an anonymous session key, never both.
package cart

import (
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantSnapshot is the live variant data the cart needs to add or reprice a line
type VariantSnapshot struct {
	VariantID   uuid.UUID
	ProductName string
	SKU         string
	Label       string
	UnitPrice   decimal.Decimal
	StockTotal  int
	IsActive    bool
}

// Line is one (variant, quantity) entry. UnitPrice is computed by the server
// from the variant and never accepted from the caller.
type Line struct {
	ID          uuid.UUID
	CartID      uuid.UUID
	VariantID   uuid.UUID
	ProductName string
	SKU         string
	Label       string
	Quantity    int
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
}

// Subtotal returns UnitPrice * Quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is mutated in place and always read back whole
type Cart struct {
	shared.BaseAggregateRoot
	UserID     *uuid.UUID
	SessionKey string
	Lines      []Line
}

// New creates an empty cart for the given owner
func New(owner shared.CartOwner) (*Cart, error) {
	if (owner.UserID == nil) == (owner.SessionKey == "") {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A cart belongs to exactly one user or session")
	}
	c := &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SessionKey:        owner.SessionKey,
		Lines:             make([]Line, 0),
	}
	if owner.UserID != nil {
		id := *owner.UserID
		c.UserID = &id
	}
	return c, nil
}

// IsAnonymous reports whether the cart is keyed by session
func (c *Cart) IsAnonymous() bool {
	return c.UserID == nil
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is the sum of line subtotals, recomputed on every call
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of line quantities
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) lineIndex(lineID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) variantIndex(variantID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// AddLine adds qty units of a variant. An existing line for the same variant
// has its quantity increased instead of a second line being created. The
// stock check is a courtesy against the variant's current stock_total; it
// reserves nothing.
func (c *Cart) AddLine(v VariantSnapshot, qty int) (*Line, error) {
	if qty < 1 {
		return nil, shared.ErrInvalidQuantity
	}
	if !v.IsActive {
		return nil, shared.NewStockUnavailableError(shared.LineShortage{
			VariantID: v.VariantID, SKU: v.SKU, Requested: qty, Available: 0,
			Reason: shared.ShortageVariantInactive,
		})
	}

	idx := c.variantIndex(v.VariantID)
	existing := 0
	if idx >= 0 {
		existing = c.Lines[idx].Quantity
	}
	if existing+qty > v.StockTotal {
		return nil, shared.NewStockUnavailableError(shared.LineShortage{
			VariantID: v.VariantID, SKU: v.SKU, Requested: existing + qty, Available: v.StockTotal,
			Reason: shared.ShortageInsufficientStock,
		})
	}

	if idx >= 0 {
		c.Lines[idx].Quantity += qty
		c.Lines[idx].UnitPrice = v.UnitPrice
		c.Touch()
		return &c.Lines[idx], nil
	}

	c.Lines = append(c.Lines, Line{
		ID:          uuid.New(),
		CartID:      c.ID,
		VariantID:   v.VariantID,
		ProductName: v.ProductName,
		SKU:         v.SKU,
		Label:       v.Label,
		Quantity:    qty,
		UnitPrice:   v.UnitPrice,
		CreatedAt:   time.Now(),
	})
	c.Touch()
	return &c.Lines[len(c.Lines)-1], nil
}

// SetLineQuantity replaces a line's quantity. Zero is not a removal; use RemoveLine.
func (c *Cart) SetLineQuantity(lineID uuid.UUID, qty int) error {
	if qty < 1 {
		return shared.ErrInvalidQuantity
	}
	idx := c.lineIndex(lineID)
	if idx < 0 {
		return shared.NotFoundError("Cart line")
	}
	c.Lines[idx].Quantity = qty
	c.Touch()
	return nil
}

// RemoveLine deletes a line. Removing a missing line is NOT_FOUND.
func (c *Cart) RemoveLine(lineID uuid.UUID) error {
	idx := c.lineIndex(lineID)
	if idx < 0 {
		return shared.NotFoundError("Cart line")
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	c.Touch()
	return nil
}

// Clear empties the cart after checkout; the cart itself is kept
func (c *Cart) Clear() {
	c.Lines = make([]Line, 0)
	c.Touch()
}

// Reprice refreshes names and unit prices from live variants. Lines whose
// variant is missing from the map keep their last known price.
func (c *Cart) Reprice(live map[uuid.UUID]VariantSnapshot) {
	for i := range c.Lines {
		if v, ok := live[c.Lines[i].VariantID]; ok {
			c.Lines[i].UnitPrice = v.UnitPrice
			c.Lines[i].ProductName = v.ProductName
			c.Lines[i].SKU = v.SKU
			c.Lines[i].Label = v.Label
		}
	}
}

// MergeFrom moves the lines of an anonymous cart into this one, summing
// quantities per variant. Stock is not checked here; checkout does that.
func (c *Cart) MergeFrom(other *Cart) {
	if other == nil || other.ID == c.ID {
		return
	}
	for _, l := range other.Lines {
		if idx := c.variantIndex(l.VariantID); idx >= 0 {
			c.Lines[idx].Quantity += l.Quantity
			continue
		}
		l.ID = uuid.New()
		l.CartID = c.ID
		c.Lines = append(c.Lines, l)
	}
	other.Lines = make([]Line, 0)
	c.Touch()
}

// VariantIDs lists the variants referenced by the cart
func (c *Cart) VariantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.VariantID)
	}
	return ids
}
