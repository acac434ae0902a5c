package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielly-semijoias/storefront/internal/handler"
)

type Handlers struct {
	Orders   *handler.OrderHandler
	Products *handler.ProductHandler
	Shipping *handler.ShippingHandler
}

func NewRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		h.Orders.RegisterRoutes(api)
		h.Products.RegisterRoutes(api)
		h.Shipping.RegisterRoutes(api)
	})

	return r
}
