// Package gateway adapts the Stripe PaymentIntents API to the payment
// domain's Gateway and WebhookVerifier ports.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// Metadata keys attached to every intent so webhook events can be traced
// back to the local payment without a lookup.
const (
	MetadataPaymentID   = "payment_id"
	MetadataOrderID     = "order_id"
	MetadataOrderNumber = "order_number"
)

// StripeGateway implements payment.Gateway and payment.WebhookVerifier
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

var (
	_ payment.Gateway         = (*StripeGateway)(nil)
	_ payment.WebhookVerifier = (*StripeGateway)(nil)
)

// NewStripeGateway creates a gateway from the card gateway settings. A nil
// backend selects the real Stripe API.
func NewStripeGateway(cfg config.StripeConfig, backend stripe.Backend, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	if backend == nil {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient:        &http.Client{Timeout: cfg.APITimeout},
			MaxNetworkRetries: stripe.Int64(2),
			LeveledLogger:     logger.Sugar(),
		})
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{API: backend})

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// CreateIntent prepares a charge for the payment. The payment ID doubles as
// idempotency key so a retried request never creates a second intent.
func (g *StripeGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if req.AmountCents <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Intent amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Order " + req.OrderNumber),
	}
	params.Context = ctx
	params.SetIdempotencyKey("intent-" + req.PaymentID.String())
	params.AddMetadata(MetadataPaymentID, req.PaymentID.String())
	params.AddMetadata(MetadataOrderID, req.OrderID.String())
	params.AddMetadata(MetadataOrderNumber, req.OrderNumber)
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe payment intent",
			zap.String("payment_id", req.PaymentID.String()),
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return nil, upstream("create payment intent", err)
	}

	g.logger.Info("Created Stripe payment intent",
		zap.String("payment_id", req.PaymentID.String()),
		zap.String("intent_id", pi.ID),
		zap.Int64("amount_cents", req.AmountCents))

	return &payment.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// GetIntentStatus reads the current state of an intent
func (g *StripeGateway) GetIntentStatus(ctx context.Context, intentID string) (payment.IntentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		g.logger.Error("Failed to get Stripe payment intent",
			zap.String("intent_id", intentID),
			zap.Error(err))
		return "", upstream("get payment intent", err)
	}
	return mapStatus(pi), nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes
// payment_intent events. Other event types come back as GatewayEventIgnored.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*payment.GatewayEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("stripe: webhook secret not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	ev := &payment.GatewayEvent{
		ID:      event.ID,
		RawType: string(event.Type),
		Kind:    payment.GatewayEventIgnored,
	}
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		ev.Kind = payment.GatewayEventSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		ev.Kind = payment.GatewayEventFailed
	default:
		return ev, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe: malformed payment intent in event %s: %w", event.ID, err)
	}
	ev.IntentID = pi.ID
	ev.PaymentID = pi.Metadata[MetadataPaymentID]
	ev.OrderID = pi.Metadata[MetadataOrderID]
	if pi.LastPaymentError != nil {
		ev.FailureReason = pi.LastPaymentError.Msg
	}
	return ev, nil
}

func mapStatus(pi *stripe.PaymentIntent) payment.IntentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return payment.IntentSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return payment.IntentProcessing
	case stripe.PaymentIntentStatusCanceled:
		return payment.IntentCanceled
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// Stripe drops a declined intent back to requires_payment_method
		if pi.LastPaymentError != nil {
			return payment.IntentFailed
		}
	}
	return payment.IntentOpen
}

// upstream wraps any Stripe failure so callers can map it uniformly
func upstream(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return fmt.Errorf("%w: stripe: %s: %s (status %d)",
			shared.ErrUpstreamUnavailable, op, serr.Msg, serr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: stripe: %s: %v", shared.ErrUpstreamUnavailable, op, err)
}
