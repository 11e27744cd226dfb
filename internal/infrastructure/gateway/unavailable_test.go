package gateway

import (
	"context"
	"testing"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	var gw Unavailable

	_, err := gw.CreateIntent(context.Background(), payment.IntentRequest{AmountCents: 1990, Currency: "usd"})
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)

	_, err = gw.GetIntentStatus(context.Background(), "pi_123")
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)

	_, err = gw.VerifyWebhook([]byte(`{}`), "t=1,v1=abc")
	assert.Error(t, err)
}
