package gateway

import (
	"context"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
)

// Unavailable stands in for the card gateway when no Stripe key is
// configured. Card payments fail with UPSTREAM_UNAVAILABLE and every
// webhook is rejected; manual proof payments are unaffected.
type Unavailable struct{}

var (
	_ payment.Gateway         = Unavailable{}
	_ payment.WebhookVerifier = Unavailable{}
)

var errNotConfigured = shared.NewDomainError(shared.CodeUpstreamUnavailable, "Card payments are not configured")

// CreateIntent implements payment.Gateway
func (Unavailable) CreateIntent(context.Context, payment.IntentRequest) (*payment.Intent, error) {
	return nil, errNotConfigured
}

// GetIntentStatus implements payment.Gateway
func (Unavailable) GetIntentStatus(context.Context, string) (payment.IntentStatus, error) {
	return "", errNotConfigured
}

// VerifyWebhook implements payment.WebhookVerifier
func (Unavailable) VerifyWebhook([]byte, string) (*payment.GatewayEvent, error) {
	return nil, shared.NewDomainError("INVALID_SIGNATURE", "Webhook verification is not configured")
}
