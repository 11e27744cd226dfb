package payment

import (
	"context"

	"github.com/google/uuid"
)

// IntentRequest asks the card gateway to prepare a charge
type IntentRequest struct {
	PaymentID     uuid.UUID
	OrderID       uuid.UUID
	OrderNumber   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

// Intent is the gateway's handle for a prepared charge. ClientSecret is the
// opaque value the storefront uses to drive card entry.
type Intent struct {
	ID           string
	ClientSecret string
}

// IntentStatus is the gateway's view of a charge
type IntentStatus string

const (
	IntentSucceeded  IntentStatus = "succeeded"
	IntentProcessing IntentStatus = "processing"
	IntentFailed     IntentStatus = "failed"
	IntentCanceled   IntentStatus = "canceled"
	IntentOpen       IntentStatus = "open"
)

// Gateway is the card payment provider. Implementations wrap transport
// failures in shared.ErrUpstreamUnavailable.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntentStatus(ctx context.Context, intentID string) (IntentStatus, error)
}

// GatewayEventKind classifies a verified gateway notification
type GatewayEventKind string

const (
	GatewayEventSucceeded GatewayEventKind = "payment_intent.succeeded"
	GatewayEventFailed    GatewayEventKind = "payment_intent.payment_failed"
	GatewayEventIgnored   GatewayEventKind = ""
)

// GatewayEvent is a verified, decoded webhook notification
type GatewayEvent struct {
	ID            string
	Kind          GatewayEventKind
	RawType       string
	IntentID      string
	PaymentID     string // from intent metadata
	OrderID       string // from intent metadata
	FailureReason string
}

// WebhookVerifier checks a webhook signature and decodes the event
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error)
}
