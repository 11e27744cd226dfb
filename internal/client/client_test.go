package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	cartapp "github.com/boutique/backend/internal/application/cart"
	orderapp "github.com/boutique/backend/internal/application/order"
	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func sampleCart(lineID uuid.UUID, qty int) *cartapp.CartDTO {
	price := decimal.RequireFromString("19.90")
	sub := price.Mul(decimal.NewFromInt(int64(qty)))
	return &cartapp.CartDTO{
		Lines: []cartapp.LineDTO{{
			ID:        lineID,
			VariantID: uuid.New(),
			SKU:       "TEE-BLK-M",
			Quantity:  qty,
			UnitPrice: price,
			Subtotal:  sub,
		}},
		ItemCount: qty,
		Total:     sub,
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_SendsSessionHeaders(t *testing.T) {
	var gotKey, gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Session-Key")
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(sampleCart(uuid.New(), 1)))
	}))
	c.SetSessionKey("anon-123")
	c.SetAccessToken("tok")

	_, err := c.Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "anon-123", gotKey)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestClient_CartIsCachedUntilMutated(t *testing.T) {
	lineID := uuid.New()
	var gets atomic.Int32
	var c *Client
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(sampleCart(lineID, 1)))
	})
	mux.HandleFunc("PATCH /api/v1/cart/lines/{id}", func(w http.ResponseWriter, r *http.Request) {
		local, ok := Lookup[*cartapp.CartDTO](c.Cache(), KeyCart)
		if assert.True(t, ok) {
			assert.Equal(t, 3, local.ItemCount, "optimistic cart is visible during the call")
			assert.Equal(t, "59.7", local.Total.String())
		}
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(sampleCart(lineID, 3)))
	})
	c = newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.Cart(ctx)
	require.NoError(t, err)
	_, err = c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gets.Load())

	updated, err := c.SetCartLineQuantity(ctx, lineID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Lines[0].Quantity)

	_, err = c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load(), "settled key is refetched")
}

func TestClient_SetCartLineQuantity_RollsBackOnShortage(t *testing.T) {
	lineID := uuid.New()
	variantID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(sampleCart(lineID, 1)))
	})
	mux.HandleFunc("PATCH /api/v1/cart/lines/{id}", func(w http.ResponseWriter, r *http.Request) {
		err := shared.NewStockUnavailableError(shared.LineShortage{
			VariantID: variantID, SKU: "TEE-BLK-M", Requested: 9, Available: 2, Reason: shared.ShortageInsufficientStock,
		})
		writeJSON(w, http.StatusUnprocessableEntity, dto.NewDomainErrorResponse(err, "req-1"))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	before, err := c.Cart(ctx)
	require.NoError(t, err)

	_, err = c.SetCartLineQuantity(ctx, lineID, 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrStockUnavailable))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "req-1", apiErr.RequestID)
	shortages, err := apiErr.Shortages()
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	assert.Equal(t, 2, shortages[0].Available)

	after, ok := Lookup[*cartapp.CartDTO](c.Cache(), KeyCart)
	require.True(t, ok)
	assert.Same(t, before, after, "exact pre-mutation value restored")
	assert.Equal(t, 1, after.Lines[0].Quantity)
}

func TestClient_RemoveCartLine(t *testing.T) {
	keep, drop := uuid.New(), uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		cart := sampleCart(keep, 1)
		cart.Lines = append(cart.Lines, cartapp.LineDTO{ID: drop, Quantity: 2, UnitPrice: decimal.NewFromInt(5)})
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(cart))
	})
	mux.HandleFunc("DELETE /api/v1/cart/lines/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, drop.String(), r.PathValue("id"))
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(sampleCart(keep, 1)))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.Cart(ctx)
	require.NoError(t, err)
	cart, err := c.RemoveCartLine(ctx, drop)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, keep, cart.Lines[0].ID)
}

func TestClient_ApprovePayment_InvalidatesOrderViews(t *testing.T) {
	paymentID, orderID := uuid.New(), uuid.New()
	var gotNotes string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/payments/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		var req paymentapp.ReviewRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotNotes = req.Notes
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(paymentapp.PaymentDTO{
			ID: paymentID, OrderID: orderID, Status: "COMPLETED", Method: "MANUAL_PROOF",
		}))
	})
	c := newTestClient(t, mux)
	cache := c.Cache()
	cache.Set(OrderKey(orderID.String()), &orderapp.OrderDTO{ID: orderID, Status: "IN_VERIFICATION"})
	cache.Set(KeyOrdersPrefix+"admin", []orderapp.SummaryDTO{})
	cache.Set(PaymentKey(paymentID.String()), &paymentapp.PaymentDTO{ID: paymentID, OrderID: orderID, Status: "PENDING"})
	cache.Set(KeyCart, &cartapp.CartDTO{})

	p, err := c.ApprovePayment(context.Background(), paymentID, "transfer matched")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", p.Status)
	assert.Equal(t, "transfer matched", gotNotes)

	assert.True(t, cache.IsStale(OrderKey(orderID.String())))
	assert.True(t, cache.IsStale(KeyOrdersPrefix+"admin"))
	assert.False(t, cache.IsStale(KeyCart))
	cached, ok := Lookup[*paymentapp.PaymentDTO](cache, PaymentKey(paymentID.String()))
	require.True(t, ok)
	assert.Equal(t, "COMPLETED", cached.Status)
}

func TestClient_RejectPayment(t *testing.T) {
	paymentID, orderID := uuid.New(), uuid.New()
	var called atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/payments/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		called.Store(r.PathValue("id") == paymentID.String())
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(paymentapp.PaymentDTO{
			ID: paymentID, OrderID: orderID, Status: "FAILED", Method: "MANUAL_PROOF", FailureReason: "rejected by operator",
		}))
	})
	c := newTestClient(t, mux)
	cache := c.Cache()
	cache.Set(PaymentKey(paymentID.String()), &paymentapp.PaymentDTO{ID: paymentID, OrderID: orderID, Status: "PENDING"})

	p, err := c.RejectPayment(context.Background(), paymentID, "amount does not match")
	require.NoError(t, err)
	assert.True(t, called.Load())
	assert.Equal(t, "FAILED", p.Status)
	cached, ok := Lookup[*paymentapp.PaymentDTO](cache, PaymentKey(paymentID.String()))
	require.True(t, ok)
	assert.Equal(t, "FAILED", cached.Status)
}

func TestClient_UpdateOrderStatus_RejectedTransition(t *testing.T) {
	orderID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/admin/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.NewDomainErrorResponse(shared.ErrInvalidStateTransition, ""))
	})
	c := newTestClient(t, mux)
	original := &orderapp.OrderDTO{ID: orderID, Status: "DELIVERED"}
	c.Cache().Set(OrderKey(orderID.String()), original)

	_, err := c.UpdateOrderStatus(context.Background(), orderID, "SHIPPED", "")
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	cached, _ := Lookup[*orderapp.OrderDTO](c.Cache(), OrderKey(orderID.String()))
	assert.Same(t, original, cached)
	assert.Equal(t, "DELIVERED", cached.Status)
}

func TestClient_Checkout_StalesCart(t *testing.T) {
	orderID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, dto.NewSuccessResponse(orderapp.OrderDTO{ID: orderID, Number: "BTQ-000042", Status: "PENDING"}))
	})
	c := newTestClient(t, mux)
	c.Cache().Set(KeyCart, sampleCart(uuid.New(), 1))

	order, err := c.Checkout(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "BTQ-000042", order.Number)
	assert.True(t, c.Cache().IsStale(KeyCart))
	assert.False(t, c.Cache().IsStale(OrderKey(orderID.String())))
}

func TestClient_UploadProof(t *testing.T) {
	paymentID, orderID := uuid.New(), uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/payments/{id}/proof", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "receipt.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(body))
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(paymentapp.PaymentDTO{
			ID: paymentID, OrderID: orderID, Status: "PENDING", ProofURL: "/uploads/proofs/receipt.pdf",
		}))
	})
	c := newTestClient(t, mux)
	c.Cache().Set(OrderKey(orderID.String()), &orderapp.OrderDTO{ID: orderID, Status: "PENDING"})

	p, err := c.UploadProof(context.Background(), paymentID, "receipt.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/proofs/receipt.pdf", p.ProofURL)
	assert.True(t, c.Cache().IsStale(OrderKey(orderID.String())))
}

func TestClient_ErrorWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := c.Cart(context.Background())
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)
}

func TestClient_RetriesReadsOnlyWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, dto.NewErrorResponse(shared.CodeUpstreamUnavailable, "busy", ""))
			return
		}
		writeJSON(w, http.StatusOK, dto.NewSuccessResponse(sampleCart(uuid.New(), 1)))
	})

	plain := newTestClient(t, handler)
	_, err := plain.Cart(context.Background())
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)

	calls.Store(0)
	retrying := newTestClient(t, handler, WithRetry(RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond}))
	_, err = retrying.Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundMatchesSentinel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, dto.NewDomainErrorResponse(shared.ErrNotFound, ""))
	}))

	_, err := c.MyOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NotErrorIs(t, err, shared.ErrForbidden)
}
