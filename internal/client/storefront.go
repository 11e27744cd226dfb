package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	cartapp "github.com/boutique/backend/internal/application/cart"
	orderapp "github.com/boutique/backend/internal/application/order"
	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart returns the caller's cart, from cache while fresh
func (c *Client) Cart(ctx context.Context) (*cartapp.CartDTO, error) {
	return read[*cartapp.CartDTO](ctx, c, KeyCart, "/cart")
}

// AddToCart adds qty units of a variant. A variant already in the cart is
// bumped locally; a new one only shows up once the server answers.
func (c *Client) AddToCart(ctx context.Context, variantID uuid.UUID, qty int) (*cartapp.CartDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, KeyCart,
		func(cur *cartapp.CartDTO) *cartapp.CartDTO {
			return editCart(cur, func(l *cartapp.LineDTO) bool {
				if l.VariantID == variantID {
					l.Quantity += qty
				}
				return true
			})
		},
		func(ctx context.Context) (*cartapp.CartDTO, error) {
			return mutate[*cartapp.CartDTO](ctx, c, http.MethodPost, "/cart/lines",
				cartapp.AddLineRequest{VariantID: variantID, Quantity: qty})
		},
		nil,
	)
}

// SetCartLineQuantity replaces the quantity of one line
func (c *Client) SetCartLineQuantity(ctx context.Context, lineID uuid.UUID, qty int) (*cartapp.CartDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, KeyCart,
		func(cur *cartapp.CartDTO) *cartapp.CartDTO {
			return editCart(cur, func(l *cartapp.LineDTO) bool {
				if l.ID == lineID {
					l.Quantity = qty
				}
				return true
			})
		},
		func(ctx context.Context) (*cartapp.CartDTO, error) {
			return mutate[*cartapp.CartDTO](ctx, c, http.MethodPatch, "/cart/lines/"+lineID.String(),
				cartapp.SetQuantityRequest{Quantity: qty})
		},
		nil,
	)
}

// RemoveCartLine drops one line
func (c *Client) RemoveCartLine(ctx context.Context, lineID uuid.UUID) (*cartapp.CartDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, KeyCart,
		func(cur *cartapp.CartDTO) *cartapp.CartDTO {
			return editCart(cur, func(l *cartapp.LineDTO) bool { return l.ID != lineID })
		},
		func(ctx context.Context) (*cartapp.CartDTO, error) {
			return mutate[*cartapp.CartDTO](ctx, c, http.MethodDelete, "/cart/lines/"+lineID.String(), nil)
		},
		nil,
	)
}

// editCart copies cur, passes every line through fn (dropping those for
// which it returns false) and recomputes the totals. The cached cart is
// never modified in place so a snapshot stays exact.
func editCart(cur *cartapp.CartDTO, fn func(l *cartapp.LineDTO) bool) *cartapp.CartDTO {
	if cur == nil {
		return nil
	}
	next := &cartapp.CartDTO{ID: cur.ID, Lines: make([]cartapp.LineDTO, 0, len(cur.Lines)), Total: decimal.Zero}
	for _, l := range cur.Lines {
		if !fn(&l) {
			continue
		}
		l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		next.Lines = append(next.Lines, l)
		next.ItemCount += l.Quantity
		next.Total = next.Total.Add(l.Subtotal)
	}
	return next
}

// Checkout places an order from the cart. The new order is cached and the
// cart and order lists are marked stale.
func (c *Client) Checkout(ctx context.Context, addressID uuid.UUID) (*orderapp.OrderDTO, error) {
	order, err := mutate[*orderapp.OrderDTO](ctx, c, http.MethodPost, "/checkout",
		orderapp.CheckoutRequest{AddressID: addressID})
	if err != nil {
		return nil, err
	}
	c.cache.Set(OrderKey(order.ID.String()), order)
	c.cache.Invalidate(KeyCart, KeyOrdersPrefix)
	return order, nil
}

// MyOrders lists the caller's orders (first page)
func (c *Client) MyOrders(ctx context.Context) ([]orderapp.SummaryDTO, error) {
	return read[[]orderapp.SummaryDTO](ctx, c, KeyOrdersPrefix+"mine", "/orders")
}

// MyOrder returns one of the caller's orders
func (c *Client) MyOrder(ctx context.Context, id uuid.UUID) (*orderapp.OrderDTO, error) {
	return read[*orderapp.OrderDTO](ctx, c, OrderKey(id.String()), "/orders/"+id.String())
}

// CreatePayment starts a payment for an order. It is not optimistic: there
// is no payment to show before the server assigns one.
func (c *Client) CreatePayment(ctx context.Context, orderID uuid.UUID, method string) (*paymentapp.PaymentDTO, error) {
	p, err := mutate[*paymentapp.PaymentDTO](ctx, c, http.MethodPost, "/payments",
		paymentapp.CreatePaymentRequest{OrderID: orderID, Method: method})
	if err != nil {
		return nil, err
	}
	c.cache.Set(PaymentKey(p.ID.String()), p)
	c.cache.Invalidate(OrderKey(orderID.String()), KeyOrdersPrefix, KeyPaymentsMine)
	return p, nil
}

// UploadProof attaches a transfer receipt to a manual payment, which moves
// its order to IN_VERIFICATION
func (c *Client) UploadProof(ctx context.Context, paymentID uuid.UUID, filename, contentType string, file io.Reader) (*paymentapp.PaymentDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, PaymentKey(paymentID.String()),
		nil,
		func(ctx context.Context) (*paymentapp.PaymentDTO, error) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
			header.Set("Content-Type", contentType)
			part, err := mw.CreatePart(header)
			if err != nil {
				return nil, fmt.Errorf("creating multipart part: %w", err)
			}
			if _, err := io.Copy(part, file); err != nil {
				return nil, fmt.Errorf("writing proof: %w", err)
			}
			if err := mw.Close(); err != nil {
				return nil, fmt.Errorf("closing multipart body: %w", err)
			}

			var out *paymentapp.PaymentDTO
			err = c.do(ctx, request{
				method:      http.MethodPost,
				path:        "/payments/" + paymentID.String() + "/proof",
				body:        &buf,
				contentType: mw.FormDataContentType(),
			}, &out)
			return out, err
		},
		nil,
		Invalidates(KeyOrdersPrefix, KeyPaymentsMine),
		InvalidatesFrom(paymentOrder),
	)
}

// ConfirmPayment asks the server to check a gateway payment against the
// provider after the customer completed it
func (c *Client) ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*paymentapp.PaymentDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, PaymentKey(paymentID.String()),
		nil,
		func(ctx context.Context) (*paymentapp.PaymentDTO, error) {
			return mutate[*paymentapp.PaymentDTO](ctx, c, http.MethodPost, "/payments/"+paymentID.String()+"/confirm", nil)
		},
		nil,
		Invalidates(KeyOrdersPrefix, KeyPaymentsMine),
		InvalidatesFrom(paymentOrder),
	)
}

func paymentOrder(p *paymentapp.PaymentDTO) []string {
	if p == nil {
		return nil
	}
	return []string{OrderKey(p.OrderID.String())}
}
