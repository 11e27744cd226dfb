package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*paymentapp.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.WebhookResult), args.Error(1)
}

func postWebhook(svc *MockWebhookService, body, signature string) *httptest.ResponseRecorder {
	h := NewWebhookHandler(svc)
	r := testRouter(shared.Session{})
	r.POST("/webhooks/stripe", h.Stripe)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_PassesRawPayload(t *testing.T) {
	svc := new(MockWebhookService)
	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	svc.On("ProcessWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").
		Return(&paymentapp.WebhookResult{EventID: "evt_1", EventType: "payment_intent.succeeded", Processed: true}, nil)

	w := postWebhook(svc, payload, "t=1,v1=abc")

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[paymentapp.WebhookResult](t, w)
	assert.True(t, got.Processed)
	svc.AssertExpectations(t)
}

func TestWebhookHandler_Duplicate(t *testing.T) {
	svc := new(MockWebhookService)
	svc.On("ProcessWebhook", mock.Anything, mock.Anything, mock.Anything).
		Return(&paymentapp.WebhookResult{EventID: "evt_1", Duplicate: true, Message: "Already processed"}, nil)

	w := postWebhook(svc, `{}`, "sig")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeData[paymentapp.WebhookResult](t, w).Duplicate)
}

func TestWebhookHandler_Rejections(t *testing.T) {
	t.Run("missing signature", func(t *testing.T) {
		svc := new(MockWebhookService)
		w := postWebhook(svc, `{}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidSignature, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "ProcessWebhook", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad signature", func(t *testing.T) {
		svc := new(MockWebhookService)
		svc.On("ProcessWebhook", mock.Anything, mock.Anything, "forged").Return(nil, paymentapp.ErrInvalidSignature)
		w := postWebhook(svc, `{}`, "forged")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		svc := new(MockWebhookService)
		w := postWebhook(svc, strings.Repeat("x", maxWebhookPayloadSize+1), "sig")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("unknown intent is retried", func(t *testing.T) {
		svc := new(MockWebhookService)
		svc.On("ProcessWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(&paymentapp.WebhookResult{EventID: "evt_2"}, shared.ErrNotFound)
		w := postWebhook(svc, `{}`, "sig")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
