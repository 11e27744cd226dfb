package router

import (
	"github.com/boutique/backend/internal/interfaces/http/handler"
	"github.com/boutique/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the handlers mounted by Storefront
type Handlers struct {
	Catalog      *handler.CatalogHandler
	CatalogAdmin *handler.CatalogAdminHandler
	Auth         *handler.AuthHandler
	Addresses    *handler.AddressHandler
	Cart         *handler.CartHandler
	Orders       *handler.OrderHandler
	Payments     *handler.PaymentHandler
	PaymentAdmin *handler.PaymentAdminHandler
	Webhooks     *handler.WebhookHandler
	Inventory    *handler.InventoryHandler
}

// Storefront builds the route groups of the API. authLimit guards the
// credential endpoints and may be nil.
func Storefront(h Handlers, authLimit gin.HandlerFunc) []*Group {
	catalog := NewGroup("/catalog")
	catalog.GET("/products", h.Catalog.ListProducts)
	catalog.GET("/products/:slug", h.Catalog.GetProduct)
	catalog.GET("/products/:slug/resolve", h.Catalog.Resolve)
	catalog.GET("/products/:slug/facets/:attribute", h.Catalog.Facets)

	auth := NewGroup("/auth")
	if authLimit != nil {
		auth.Use(authLimit)
	}
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	account := auth.Group("", middleware.RequireUser())
	account.POST("/logout", h.Auth.Logout)
	account.GET("/me", h.Auth.Me)
	account.PUT("/me", h.Auth.UpdateProfile)
	account.PUT("/password", h.Auth.ChangePassword)

	// anonymous carts are keyed by X-Session-Key
	cart := NewGroup("/cart")
	cart.GET("", h.Cart.Get)
	cart.POST("/lines", h.Cart.AddLine)
	cart.PATCH("/lines/:id", h.Cart.SetQuantity)
	cart.DELETE("/lines/:id", h.Cart.RemoveLine)

	webhooks := NewGroup("/webhooks")
	webhooks.POST("/stripe", h.Webhooks.Stripe)

	customer := NewGroup("", middleware.RequireUser())
	addresses := customer.Group("/addresses")
	addresses.GET("", h.Addresses.List)
	addresses.POST("", h.Addresses.Create)
	addresses.GET("/:id", h.Addresses.Get)
	addresses.PUT("/:id", h.Addresses.Update)
	addresses.DELETE("/:id", h.Addresses.Delete)
	customer.POST("/checkout", h.Orders.Checkout)
	orders := customer.Group("/orders")
	orders.GET("", h.Orders.ListMine)
	orders.GET("/:id", h.Orders.GetMine)
	payments := customer.Group("/payments")
	payments.GET("", h.Payments.ListMine)
	payments.POST("", h.Payments.Create)
	payments.POST("/:id/proof", h.Payments.UploadProof)
	payments.POST("/:id/confirm", h.Payments.Confirm)

	admin := NewGroup("/admin", middleware.RequireOperator())
	products := admin.Group("/products")
	products.GET("", h.CatalogAdmin.ListProducts)
	products.POST("", h.CatalogAdmin.CreateProduct)
	products.GET("/:id", h.CatalogAdmin.GetProduct)
	products.PUT("/:id", h.CatalogAdmin.UpdateProduct)
	products.POST("/:id/variants", h.CatalogAdmin.AddVariant)
	products.POST("/:id/images", h.CatalogAdmin.AddImage)
	variants := admin.Group("/variants")
	variants.PUT("/:id", h.CatalogAdmin.UpdateVariant)
	variants.GET("/:id/stock", h.Inventory.GetVariantStock)
	attributes := admin.Group("/attributes")
	attributes.GET("", h.CatalogAdmin.ListAttributes)
	attributes.POST("", h.CatalogAdmin.CreateAttribute)
	attributes.POST("/:id/values", h.CatalogAdmin.AddAttributeValue)
	admin.GET("/warehouses", h.Inventory.ListWarehouses)
	admin.POST("/warehouses", h.Inventory.CreateWarehouse)
	admin.PUT("/stock", h.Inventory.SetStock)
	adminOrders := admin.Group("/orders")
	adminOrders.GET("", h.Orders.List)
	adminOrders.GET("/:id", h.Orders.Get)
	adminOrders.PATCH("/:id/status", h.Orders.UpdateStatus)
	adminPayments := admin.Group("/payments")
	adminPayments.GET("", h.PaymentAdmin.List)
	adminPayments.POST("", h.PaymentAdmin.Create)
	adminPayments.GET("/:id", h.PaymentAdmin.Get)
	adminPayments.POST("/:id/approve", h.PaymentAdmin.Approve)
	adminPayments.POST("/:id/reject", h.PaymentAdmin.Reject)
	adminPayments.POST("/:id/fail", h.PaymentAdmin.Fail)
	adminPayments.PATCH("/:id/notes", h.PaymentAdmin.UpdateNotes)

	return []*Group{catalog, auth, cart, webhooks, customer, admin}
}
