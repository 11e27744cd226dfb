package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boutique/backend/internal/infrastructure/auth"
	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/boutique/backend/internal/interfaces/http/handler"
	"github.com/boutique/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGroup_NestedMiddlewareOrder(t *testing.T) {
	engine := gin.New()
	var hits []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { hits = append(hits, name) }
	}

	orders := NewGroup("/orders", mark("group"))
	orders.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	orders.Group("/:id", mark("sub")).PATCH("/status", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	api := Mount(engine, "v2", []gin.HandlerFunc{mark("api")}, orders)
	assert.Equal(t, "/api/v2", api.BasePath())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v2/orders/42/status", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"api", "group", "sub"}, hits)
}

func storefrontHandlers() Handlers {
	return Handlers{
		Catalog:      handler.NewCatalogHandler(nil),
		CatalogAdmin: handler.NewCatalogAdminHandler(nil),
		Auth:         handler.NewAuthHandler(nil),
		Addresses:    handler.NewAddressHandler(nil),
		Cart:         handler.NewCartHandler(nil),
		Orders:       handler.NewOrderHandler(nil, nil),
		Payments:     handler.NewPaymentHandler(nil),
		PaymentAdmin: handler.NewPaymentAdminHandler(nil),
		Webhooks:     handler.NewWebhookHandler(nil),
		Inventory:    handler.NewInventoryHandler(nil),
	}
}

func TestStorefront_RouteTable(t *testing.T) {
	engine := gin.New()
	Mount(engine, "v1", nil, Storefront(storefrontHandlers(), nil)...)

	registered := map[string]bool{}
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/catalog/products",
		"GET /api/v1/catalog/products/:slug",
		"GET /api/v1/catalog/products/:slug/resolve",
		"GET /api/v1/catalog/products/:slug/facets/:attribute",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"GET /api/v1/cart",
		"POST /api/v1/cart/lines",
		"PATCH /api/v1/cart/lines/:id",
		"DELETE /api/v1/cart/lines/:id",
		"POST /api/v1/webhooks/stripe",
		"GET /api/v1/addresses",
		"DELETE /api/v1/addresses/:id",
		"POST /api/v1/checkout",
		"GET /api/v1/orders",
		"GET /api/v1/orders/:id",
		"POST /api/v1/payments",
		"GET /api/v1/payments",
		"POST /api/v1/payments/:id/proof",
		"POST /api/v1/payments/:id/confirm",
		"POST /api/v1/admin/products",
		"PUT /api/v1/admin/products/:id",
		"POST /api/v1/admin/products/:id/variants",
		"POST /api/v1/admin/products/:id/images",
		"PUT /api/v1/admin/variants/:id",
		"POST /api/v1/admin/attributes",
		"POST /api/v1/admin/attributes/:id/values",
		"GET /api/v1/admin/orders",
		"GET /api/v1/admin/orders/:id",
		"PATCH /api/v1/admin/orders/:id/status",
		"GET /api/v1/admin/payments",
		"POST /api/v1/admin/payments",
		"POST /api/v1/admin/payments/:id/approve",
		"POST /api/v1/admin/payments/:id/reject",
		"POST /api/v1/admin/payments/:id/fail",
		"PATCH /api/v1/admin/payments/:id/notes",
		"PUT /api/v1/admin/stock",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestStorefront_Guards(t *testing.T) {
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-with-enough-length",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "boutique-test",
	})
	token := func(staff bool) string {
		pair, err := jwt.GenerateTokenPair(auth.GenerateTokenInput{UserID: uuid.New(), Email: "x@example.com", IsStaff: staff})
		require.NoError(t, err)
		return "Bearer " + pair.AccessToken
	}

	engine := gin.New()
	Mount(engine, "v1",
		[]gin.HandlerFunc{middleware.RequestID(), middleware.Session(middleware.SessionConfig{JWTService: jwt})},
		Storefront(storefrontHandlers(), nil)...)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"checkout anonymous", http.MethodPost, "/api/v1/checkout", "", http.StatusUnauthorized},
		{"orders anonymous", http.MethodGet, "/api/v1/orders", "", http.StatusUnauthorized},
		{"me anonymous", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"admin anonymous", http.MethodGet, "/api/v1/admin/orders", "", http.StatusUnauthorized},
		{"admin as customer", http.MethodPost, "/api/v1/admin/payments/" + uuid.NewString() + "/approve", token(false), http.StatusForbidden},
		{"stock as customer", http.MethodPut, "/api/v1/admin/stock", token(false), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set(middleware.AuthHeader, tt.auth)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
