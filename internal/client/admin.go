package client

import (
	"context"
	"net/http"

	orderapp "github.com/boutique/backend/internal/application/order"
	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/google/uuid"
)

// Order returns any order as seen by an operator
func (c *Client) Order(ctx context.Context, id uuid.UUID) (*orderapp.OrderDTO, error) {
	return read[*orderapp.OrderDTO](ctx, c, OrderKey(id.String()), "/admin/orders/"+id.String())
}

// Payment returns any payment as seen by an operator
func (c *Client) Payment(ctx context.Context, id uuid.UUID) (*paymentapp.PaymentDTO, error) {
	return read[*paymentapp.PaymentDTO](ctx, c, PaymentKey(id.String()), "/admin/payments/"+id.String())
}

// UpdateOrderStatus moves an order. The cached order shows the target
// state until the server confirms or refuses it.
func (c *Client) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status, reason string) (*orderapp.OrderDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, OrderKey(id.String()),
		func(cur *orderapp.OrderDTO) *orderapp.OrderDTO {
			if cur == nil {
				return nil
			}
			next := *cur
			next.Status = status
			next.AllowedTargets = nil
			return &next
		},
		func(ctx context.Context) (*orderapp.OrderDTO, error) {
			return mutate[*orderapp.OrderDTO](ctx, c, http.MethodPatch, "/admin/orders/"+id.String()+"/status",
				orderapp.UpdateStatusRequest{Status: status, Reason: reason})
		},
		nil,
		Invalidates(KeyOrdersPrefix),
	)
}

// ApprovePayment completes a manual payment; its order becomes PAID on
// the server, so the order views are invalidated
func (c *Client) ApprovePayment(ctx context.Context, id uuid.UUID, notes string) (*paymentapp.PaymentDTO, error) {
	return c.review(ctx, id, "approve", "COMPLETED", notes)
}

// RejectPayment fails a manual payment. The order keeps its status so the
// customer can pay again.
func (c *Client) RejectPayment(ctx context.Context, id uuid.UUID, notes string) (*paymentapp.PaymentDTO, error) {
	return c.review(ctx, id, "reject", "FAILED", notes)
}

func (c *Client) review(ctx context.Context, id uuid.UUID, action, status, notes string) (*paymentapp.PaymentDTO, error) {
	return WithOptimisticUpdate(ctx, c.cache, PaymentKey(id.String()),
		func(cur *paymentapp.PaymentDTO) *paymentapp.PaymentDTO {
			if cur == nil {
				return nil
			}
			next := *cur
			next.Status = status
			return &next
		},
		func(ctx context.Context) (*paymentapp.PaymentDTO, error) {
			return mutate[*paymentapp.PaymentDTO](ctx, c, http.MethodPost, "/admin/payments/"+id.String()+"/"+action,
				paymentapp.ReviewRequest{Notes: notes})
		},
		nil,
		Invalidates(KeyOrdersPrefix),
		InvalidatesFrom(paymentOrder),
	)
}

// RecordPayment registers a manual payment on behalf of a customer
func (c *Client) RecordPayment(ctx context.Context, req paymentapp.AdminCreatePaymentRequest) (*paymentapp.PaymentDTO, error) {
	p, err := mutate[*paymentapp.PaymentDTO](ctx, c, http.MethodPost, "/admin/payments", req)
	if err != nil {
		return nil, err
	}
	c.cache.Set(PaymentKey(p.ID.String()), p)
	c.cache.Invalidate(OrderKey(req.OrderID.String()), KeyOrdersPrefix)
	return p, nil
}
