package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_boutique"

type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func newTestGateway(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) *StripeGateway {
	t.Helper()
	g, err := NewStripeGateway(config.StripeConfig{
		SecretKey:       "sk_test_boutique",
		WebhookSecret:   testWebhookSecret,
		DefaultCurrency: "usd",
		APITimeout:      time.Second,
	}, &mockBackend{handler: handler}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func signed(t *testing.T, event map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	g, err := NewStripeGateway(config.StripeConfig{}, &mockBackend{}, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, g)
}

func TestCreateIntent(t *testing.T) {
	paymentID := uuid.New()
	orderID := uuid.New()

	var got *stripe.PaymentIntentParams
	g := newTestGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, http.MethodPost, method)
		assert.Equal(t, "/v1/payment_intents", path)
		got = params.(*stripe.PaymentIntentParams)
		return []byte(`{"id":"pi_123","client_secret":"pi_123_secret_abc","status":"requires_payment_method"}`), nil
	})

	intent, err := g.CreateIntent(context.Background(), payment.IntentRequest{
		PaymentID:     paymentID,
		OrderID:       orderID,
		OrderNumber:   "ORD-20261019-0001",
		AmountCents:   24480,
		Currency:      "USD",
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)

	require.NotNil(t, got)
	assert.Equal(t, int64(24480), *got.Amount)
	assert.Equal(t, "usd", *got.Currency)
	assert.Equal(t, "ana@example.com", *got.ReceiptEmail)
	assert.True(t, *got.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, "intent-"+paymentID.String(), *got.IdempotencyKey)
	assert.Equal(t, paymentID.String(), got.Metadata[MetadataPaymentID])
	assert.Equal(t, orderID.String(), got.Metadata[MetadataOrderID])
	assert.Equal(t, "ORD-20261019-0001", got.Metadata[MetadataOrderNumber])
}

func TestCreateIntent_Failures(t *testing.T) {
	t.Run("non positive amount never reaches stripe", func(t *testing.T) {
		called := false
		g := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			called = true
			return nil, nil
		})
		_, err := g.CreateIntent(context.Background(), payment.IntentRequest{PaymentID: uuid.New(), Currency: "usd"})
		assert.Error(t, err)
		assert.False(t, called)
	})

	t.Run("stripe api error is upstream unavailable", func(t *testing.T) {
		g := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "boom", HTTPStatusCode: 500}
		})
		_, err := g.CreateIntent(context.Background(), payment.IntentRequest{
			PaymentID: uuid.New(), AmountCents: 100, Currency: "usd",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrUpstreamUnavailable))
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("transport error is upstream unavailable", func(t *testing.T) {
		g := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, fmt.Errorf("dial tcp: connection refused")
		})
		_, err := g.CreateIntent(context.Background(), payment.IntentRequest{
			PaymentID: uuid.New(), AmountCents: 100, Currency: "usd",
		})
		assert.True(t, errors.Is(err, shared.ErrUpstreamUnavailable))
	})
}

func TestGetIntentStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected payment.IntentStatus
	}{
		{"succeeded", `{"id":"pi_1","status":"succeeded"}`, payment.IntentSucceeded},
		{"processing", `{"id":"pi_1","status":"processing"}`, payment.IntentProcessing},
		{"canceled", `{"id":"pi_1","status":"canceled"}`, payment.IntentCanceled},
		{"awaiting card", `{"id":"pi_1","status":"requires_payment_method"}`, payment.IntentOpen},
		{"declined", `{"id":"pi_1","status":"requires_payment_method","last_payment_error":{"message":"Your card was declined."}}`, payment.IntentFailed},
		{"requires action", `{"id":"pi_1","status":"requires_action"}`, payment.IntentOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, func(method, path string, _ stripe.ParamsContainer) ([]byte, error) {
				assert.Equal(t, http.MethodGet, method)
				assert.Equal(t, "/v1/payment_intents/pi_1", path)
				return []byte(tt.body), nil
			})
			status, err := g.GetIntentStatus(context.Background(), "pi_1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}

	t.Run("error", func(t *testing.T) {
		g := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "No such payment_intent", HTTPStatusCode: 404}
		})
		_, err := g.GetIntentStatus(context.Background(), "pi_missing")
		assert.True(t, errors.Is(err, shared.ErrUpstreamUnavailable))
	})
}

func TestVerifyWebhook(t *testing.T) {
	g := newTestGateway(t, nil)
	paymentID := uuid.New().String()
	orderID := uuid.New().String()

	t.Run("succeeded", func(t *testing.T) {
		payload, header := signed(t, map[string]any{
			"id":   "evt_1",
			"type": "payment_intent.succeeded",
			"data": map[string]any{"object": map[string]any{
				"id":       "pi_1",
				"object":   "payment_intent",
				"status":   "succeeded",
				"metadata": map[string]string{MetadataPaymentID: paymentID, MetadataOrderID: orderID},
			}},
		})
		ev, err := g.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, payment.GatewayEventSucceeded, ev.Kind)
		assert.Equal(t, "pi_1", ev.IntentID)
		assert.Equal(t, paymentID, ev.PaymentID)
		assert.Equal(t, orderID, ev.OrderID)
	})

	t.Run("payment failed carries reason", func(t *testing.T) {
		payload, header := signed(t, map[string]any{
			"id":   "evt_2",
			"type": "payment_intent.payment_failed",
			"data": map[string]any{"object": map[string]any{
				"id":                 "pi_2",
				"object":             "payment_intent",
				"status":             "requires_payment_method",
				"last_payment_error": map[string]any{"message": "Your card was declined."},
			}},
		})
		ev, err := g.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, payment.GatewayEventFailed, ev.Kind)
		assert.Equal(t, "Your card was declined.", ev.FailureReason)
	})

	t.Run("other types are ignored", func(t *testing.T) {
		payload, header := signed(t, map[string]any{
			"id":   "evt_3",
			"type": "charge.refunded",
			"data": map[string]any{"object": map[string]any{"id": "ch_1", "object": "charge"}},
		})
		ev, err := g.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, payment.GatewayEventIgnored, ev.Kind)
		assert.Equal(t, "charge.refunded", ev.RawType)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload, _ := signed(t, map[string]any{"id": "evt_4", "type": "payment_intent.succeeded"})
		_, err := g.VerifyWebhook(payload, "t=1,v1=deadbeef")
		assert.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		_, header := signed(t, map[string]any{"id": "evt_5", "type": "payment_intent.succeeded"})
		_, err := g.VerifyWebhook([]byte(`{"id":"evt_5","type":"payment_intent.succeeded","x":1}`), header)
		assert.Error(t, err)
	})
}
