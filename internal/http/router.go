package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	JWTSecret      []byte
}

// NewRouter mounts the storefront API under /api/v1/stores/{vendor} and the
// vendor administration API under /api/v1/vendor.
func NewRouter(cfg RouterConfig, storefront *StorefrontHandler, vendor *VendorHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stores/{vendor}", func(r chi.Router) {
			r.Get("/menu", storefront.Menu)
			r.Get("/payment-options", storefront.PaymentOptions)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", storefront.GetCart)
				r.Delete("/", storefront.ClearCart)
				r.Post("/lines", storefront.AddCartLine)
				r.Delete("/lines/{index}", storefront.RemoveCartLine)
			})

			r.Post("/checkout", storefront.Checkout)
			r.Get("/payment/process", storefront.ProcessPayment)

			r.Route("/orders/{order_id}", func(r chi.Router) {
				r.Get("/", storefront.GetOrder)
				r.Get("/payments", storefront.ListOrderPayments)
				r.Post("/retry-payment", storefront.RetryPayment)
			})
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(VendorAuth(cfg.JWTSecret))

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", vendor.ListMenuItems)
				r.Post("/", vendor.CreateMenuItem)
				r.Get("/{item_id}", vendor.GetMenuItem)
				r.Put("/{item_id}", vendor.UpdateMenuItem)
				r.Delete("/{item_id}", vendor.DeleteMenuItem)
			})

			r.Route("/payment-methods", func(r chi.Router) {
				r.Get("/", vendor.ListPaymentMethods)
				r.Post("/", vendor.CreatePaymentMethod)
				r.Put("/{method_id}", vendor.UpdatePaymentMethod)
				r.Delete("/{method_id}", vendor.DeletePaymentMethod)
			})
			r.Get("/settings", vendor.GetSettings)
			r.Put("/settings", vendor.PutSettings)
			r.Put("/settings/manual-payment", vendor.SetManualPayment)

			r.Get("/loyalty", vendor.GetLoyalty)
			r.Put("/loyalty", vendor.PutLoyalty)

			r.Get("/customers", vendor.ListCustomers)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", vendor.ListOrders)
				r.Get("/{order_id}", vendor.GetOrder)
				r.Get("/{order_id}/proof", vendor.GetOrderProof)
				r.Post("/{order_id}/status", vendor.ChangeOrderStatus)
				r.Post("/{order_id}/cancel", vendor.CancelOrder)
			})

			r.Post("/payments/{payment_id}/refund", vendor.RefundPayment)
		})
	})

	return r
}
