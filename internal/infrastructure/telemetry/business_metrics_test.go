package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.AsString()] += dp.Value
	}
	return out
}

func stockPoints(got map[string]metricdata.Metrics) int {
	m, ok := got["boutique_variants_stock_level"]
	if !ok {
		return 0
	}
	gauge, _ := m.Data.(metricdata.Gauge[int64])
	return len(gauge.DataPoints)
}

type fakeStockSource struct {
	levels    StockLevels
	err       error
	threshold int
}

func (f *fakeStockSource) StockLevels(_ context.Context, threshold int) (StockLevels, error) {
	f.threshold = threshold
	return f.levels, f.err
}

func TestNewBusinessMetrics_RequiresMeter(t *testing.T) {
	m, err := NewBusinessMetrics(BusinessMetricsConfig{})
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestBusinessMetrics_NoopMeter(t *testing.T) {
	m, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	m.CheckoutCompleted(ctx, decimal.RequireFromString("10.00"), 1)
	m.CheckoutRejected(ctx, "OUT_OF_STOCK")
	m.PaymentSettled(ctx, "GATEWAY", "COMPLETED")
	assert.NoError(t, m.Close())
}

func TestBusinessMetrics_Checkout(t *testing.T) {
	reader, mp := newTestMeter(t)
	m, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: mp.Meter("test"), Logger: zap.NewNop()})
	require.NoError(t, err)

	ctx := context.Background()
	m.CheckoutCompleted(ctx, decimal.RequireFromString("119.80"), 2)
	m.CheckoutCompleted(ctx, decimal.RequireFromString("45.00"), 1)
	m.CheckoutRejected(ctx, "OUT_OF_STOCK")
	m.CheckoutRejected(ctx, "OUT_OF_STOCK")
	m.CheckoutRejected(ctx, "EMPTY_CART")

	got := collect(t, reader)

	orders := sumByAttr(t, got["boutique_checkout_completed_total"], AttrRejectReason)
	assert.Equal(t, int64(2), orders[""])

	items := sumByAttr(t, got["boutique_checkout_items_total"], AttrRejectReason)
	assert.Equal(t, int64(3), items[""])

	hist, ok := got["boutique_checkout_amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, float64(16480), hist.DataPoints[0].Sum)

	rejected := sumByAttr(t, got["boutique_checkout_rejected_total"], AttrRejectReason)
	assert.Equal(t, map[string]int64{"OUT_OF_STOCK": 2, "EMPTY_CART": 1}, rejected)
}

func TestBusinessMetrics_PaymentSettled(t *testing.T) {
	reader, mp := newTestMeter(t)
	m, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: mp.Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	m.PaymentSettled(ctx, "GATEWAY", "COMPLETED")
	m.PaymentSettled(ctx, "GATEWAY", "FAILED")
	m.PaymentSettled(ctx, "MANUAL_PROOF", "COMPLETED")

	got := collect(t, reader)
	byStatus := sumByAttr(t, got["boutique_payment_settled_total"], AttrPaymentStatus)
	assert.Equal(t, map[string]int64{"COMPLETED": 2, "FAILED": 1}, byStatus)
	byMethod := sumByAttr(t, got["boutique_payment_settled_total"], AttrPaymentMethod)
	assert.Equal(t, map[string]int64{"GATEWAY": 2, "MANUAL_PROOF": 1}, byMethod)
}

func TestBusinessMetrics_StockGauge(t *testing.T) {
	t.Run("observes levels", func(t *testing.T) {
		reader, mp := newTestMeter(t)
		src := &fakeStockSource{levels: StockLevels{OutOfStock: 3, LowStock: 7}}
		m, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: mp.Meter("test"), Stock: src})
		require.NoError(t, err)

		got := collect(t, reader)
		gauge, ok := got["boutique_variants_stock_level"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		levels := map[string]int64{}
		for _, dp := range gauge.DataPoints {
			v, _ := dp.Attributes.Value(AttrStockLevel)
			levels[v.AsString()] = dp.Value
		}
		assert.Equal(t, map[string]int64{"out_of_stock": 3, "low": 7}, levels)
		assert.Equal(t, 5, src.threshold)

		assert.NoError(t, m.Close())
	})

	t.Run("source error skips the observation", func(t *testing.T) {
		reader, mp := newTestMeter(t)
		src := &fakeStockSource{err: errors.New("db down")}
		_, err := NewBusinessMetrics(BusinessMetricsConfig{
			Meter: mp.Meter("test"), Stock: src, LowStockThreshold: 2,
		})
		require.NoError(t, err)

		assert.Zero(t, stockPoints(collect(t, reader)))
		assert.Equal(t, 2, src.threshold)
	})
}

func TestInstruments_KeepsFirstError(t *testing.T) {
	_, mp := newTestMeter(t)
	in := NewInstruments(mp.Meter("test"))

	in.Counter("ok_total", "fine", "{x}")
	require.NoError(t, in.Err())

	in.Histogram("1_bad_name", "starts with a digit", "s")
	in.Counter("2_also_bad", "starts with a digit", "{x}")
	require.Error(t, in.Err())
	assert.Contains(t, in.Err().Error(), "1_bad_name")
}
