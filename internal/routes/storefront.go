package routes

import (
	"github.com/odmarques/lojinha/internal/handler/storefront"
	"github.com/odmarques/lojinha/internal/middleware"
	"github.com/odmarques/lojinha/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	ProductHandler  *storefront.ProductHandler
	CartHandler     *storefront.CartHandler
	ShippingHandler *storefront.ShippingHandler
	CheckoutHandler *storefront.CheckoutHandler
	OrderHandler    *storefront.OrderHandler

	// LoginURL is where the authenticated routes send anonymous customers.
	LoginURL string
}

// RegisterStorefrontRoutes registers all customer-facing routes.
//
// Cart mutations go through POST even where the original storefront allowed
// GET; state changes behind GET break once a prefetcher walks the page.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Product browsing
	r.Get("/products", deps.ProductHandler.List)
	r.Get("/products/{slug}", deps.ProductHandler.Detail)

	// Shopping cart
	r.Get("/cart", deps.CartHandler.View)
	r.Post("/cart/add", deps.CartHandler.Add)
	r.Post("/cart/remove", deps.CartHandler.Remove)

	// Shipping quote
	r.Get("/shipping/quote", deps.ShippingHandler.Quote)

	// Checkout and orders (require authentication)
	auth := r.Group(middleware.RequireAuth(deps.LoginURL))
	auth.Get("/checkout/summary", deps.CheckoutHandler.Summary)
	auth.Post("/cart/save", deps.CheckoutHandler.Save)
	auth.Get("/orders", deps.OrderHandler.List)
	auth.Get("/order/{id}", deps.OrderHandler.Detail)
	auth.Get("/order/{id}/pay", deps.OrderHandler.PayView)
	auth.Post("/order/{id}/pay", deps.OrderHandler.PayStart)
	auth.Get("/order/{id}/payment-success", deps.OrderHandler.PaymentSuccess)
	auth.Get("/order/{id}/payment-cancelled", deps.OrderHandler.PaymentCancelled)
	auth.Post("/order/{id}/cancel", deps.OrderHandler.Cancel)
}
