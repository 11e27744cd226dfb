package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/boutique/backend/internal/application/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StockLevels is a point-in-time count of active variants by availability
type StockLevels struct {
	OutOfStock int64
	LowStock   int64
}

// StockLevelSource reports stock levels for the observable gauges
type StockLevelSource interface {
	StockLevels(ctx context.Context, lowStockThreshold int) (StockLevels, error)
}

// BusinessMetricsConfig configures NewBusinessMetrics
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	Stock             StockLevelSource // optional
	LowStockThreshold int              // default 5
}

// BusinessMetrics records checkout and payment counters. It implements
// common.Metrics.
type BusinessMetrics struct {
	logger *zap.Logger

	checkoutCompleted *Counter
	checkoutItems     *Counter
	checkoutAmount    *Histogram
	checkoutRejected  *Counter
	paymentSettled    *Counter

	stockRegistration metric.Registration
}

var _ common.Metrics = (*BusinessMetrics)(nil)

// NewBusinessMetrics creates the instruments on cfg.Meter. When a stock
// source is given, out-of-stock and low-stock variant counts are observed
// on every collection cycle.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, errors.New("business metrics: meter is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 5
	}

	in := NewInstruments(cfg.Meter)
	m := &BusinessMetrics{
		logger:            cfg.Logger,
		checkoutCompleted: in.Counter("boutique_checkout_completed_total", "Orders placed through checkout", "{order}"),
		checkoutItems:     in.Counter("boutique_checkout_items_total", "Units sold through checkout", "{item}"),
		checkoutAmount:    in.Histogram("boutique_checkout_amount", "Order totals", "{cent}", AmountCentsBuckets...),
		checkoutRejected:  in.Counter("boutique_checkout_rejected_total", "Checkouts refused before an order was created", "{checkout}"),
		paymentSettled:    in.Counter("boutique_payment_settled_total", "Payments that reached a terminal state", "{payment}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}

	if cfg.Stock != nil {
		if err := m.observeStock(cfg.Meter, cfg.Stock, cfg.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *BusinessMetrics) observeStock(meter metric.Meter, source StockLevelSource, threshold int) error {
	gauge, err := meter.Int64ObservableGauge("boutique_variants_stock_level",
		metric.WithDescription("Active variants by stock level"),
		metric.WithUnit("{variant}"))
	if err != nil {
		return fmt.Errorf("failed to create stock gauge: %w", err)
	}
	m.stockRegistration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		levels, err := source.StockLevels(ctx, threshold)
		if err != nil {
			m.logger.Warn("Failed to collect stock levels", zap.Error(err))
			return nil
		}
		o.ObserveInt64(gauge, levels.OutOfStock, metric.WithAttributes(AttrStockLevel.String("out_of_stock")))
		o.ObserveInt64(gauge, levels.LowStock, metric.WithAttributes(AttrStockLevel.String("low")))
		return nil
	}, gauge)
	if err != nil {
		return fmt.Errorf("failed to register stock callback: %w", err)
	}
	return nil
}

// CheckoutCompleted counts a placed order and records its total in cents
func (m *BusinessMetrics) CheckoutCompleted(ctx context.Context, total decimal.Decimal, items int) {
	m.checkoutCompleted.Inc(ctx)
	m.checkoutItems.Add(ctx, int64(items))
	m.checkoutAmount.Record(ctx, total.Shift(2).Round(0).InexactFloat64())
}

// CheckoutRejected counts a refused checkout by reason code
func (m *BusinessMetrics) CheckoutRejected(ctx context.Context, reason string) {
	m.checkoutRejected.Inc(ctx, AttrRejectReason.String(reason))
}

// PaymentSettled counts a payment reaching a terminal status
func (m *BusinessMetrics) PaymentSettled(ctx context.Context, method, status string) {
	m.paymentSettled.Inc(ctx, AttrPaymentMethod.String(method), AttrPaymentStatus.String(status))
}

// Close unregisters the stock callback
func (m *BusinessMetrics) Close() error {
	if m.stockRegistration == nil {
		return nil
	}
	return m.stockRegistration.Unregister()
}
