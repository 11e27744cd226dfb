package common

import (
	"context"

	"github.com/shopspring/decimal"
)

// Metrics receives business counters from the checkout and payment flows
type Metrics interface {
	CheckoutCompleted(ctx context.Context, total decimal.Decimal, items int)
	CheckoutRejected(ctx context.Context, reason string)
	PaymentSettled(ctx context.Context, method, status string)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) CheckoutCompleted(context.Context, decimal.Decimal, int) {}
func (NopMetrics) CheckoutRejected(context.Context, string)                {}
func (NopMetrics) PaymentSettled(context.Context, string, string)          {}
