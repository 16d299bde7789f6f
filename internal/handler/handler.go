// Package handler implements the HTTP API: catalog CRUD, order creation,
// and the payment webhook. Handlers bind and validate input, delegate to
// domain services and repositories, and map domain errors to responses.
package handler

import (
	"net/http"

	"github.com/adiwarna/kasir-pos/internal/domain/auth"
	"github.com/adiwarna/kasir-pos/internal/domain/category"
	"github.com/adiwarna/kasir-pos/internal/domain/order"
	"github.com/adiwarna/kasir-pos/internal/domain/product"
	"github.com/adiwarna/kasir-pos/internal/validation"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// APIKeyPepper is the HMAC key for hashing API keys before lookup.
	APIKeyPepper []byte
	// CallbackToken authenticates incoming payment webhooks.
	CallbackToken string
}

// Handler serves the HTTP API.
type Handler struct {
	cfg        Config
	categories category.Repository
	products   product.Repository
	orders     order.Repository
	orderSvc   *order.Service
	apikeys    auth.Repository
	validator  *validation.Validator
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	categories category.Repository,
	products product.Repository,
	orders order.Repository,
	orderSvc *order.Service,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		cfg:        cfg,
		categories: categories,
		products:   products,
		orders:     orders,
		orderSvc:   orderSvc,
		apikeys:    apikeys,
		validator:  validation.New(),
	}
}

// Routes registers all API routes on mux. Catalog and order routes require
// an API key; the webhook authenticates with the provider callback token
// instead.
func (h *Handler) Routes(mux *http.ServeMux) {
	authed := h.requireAPIKey

	mux.Handle("GET /api/categories", authed(h.listCategories))
	mux.Handle("POST /api/categories", authed(h.createCategory))
	mux.Handle("PUT /api/categories/{id}", authed(h.updateCategory))
	mux.Handle("DELETE /api/categories/{id}", authed(h.deleteCategory))

	mux.Handle("GET /api/products", authed(h.listProducts))
	mux.Handle("POST /api/products", authed(h.createProduct))
	mux.Handle("PUT /api/products/{id}", authed(h.updateProduct))
	mux.Handle("DELETE /api/products/{id}", authed(h.deleteProduct))

	mux.Handle("POST /api/orders", authed(h.createOrder))
	mux.Handle("GET /api/orders/{id}", authed(h.getOrder))

	mux.HandleFunc("POST /api/payment/webhook", h.paymentWebhook)
}
