package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/api/handlers"
	"github.com/vladislavdragonenkov/commerce/internal/api/middleware"
	"github.com/vladislavdragonenkov/commerce/internal/health"
)

// Deps — обработчики и вспомогательные компоненты маршрутизатора.
type Deps struct {
	Orders        *handlers.OrderHandler
	StoreProducts *handlers.StoreProductHandler
	Health        *health.Registry
	Logger        *log.Entry
}

// NewRouter собирает HTTP-маршруты платформы.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.WithCaller)

	if deps.Health != nil {
		r.Get("/healthz", deps.Health.LivenessHandler())
		r.Get("/readyz", deps.Health.ReadinessHandler())
	}

	r.Route("/api/platform", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", deps.Orders.Create)
			r.Route("/{order_id}", func(r chi.Router) {
				r.Get("/", deps.Orders.Show)
				r.Patch("/", deps.Orders.Update)
				r.Post("/add_item", deps.Orders.AddItem)
				r.Delete("/line_items/{line_item_id}", deps.Orders.RemoveLineItem)
				r.Patch("/set_quantity", deps.Orders.SetQuantity)
				r.Patch("/next", deps.Orders.Next)
				r.Patch("/advance", deps.Orders.Advance)
				r.Patch("/complete", deps.Orders.Complete)
				r.Patch("/approve", deps.Orders.Approve)
				r.Patch("/empty", deps.Orders.Empty)
				r.Patch("/apply_coupon_code", deps.Orders.ApplyCouponCode)
				r.Delete("/remove_coupon_code", deps.Orders.RemoveCouponCode)
			})
		})

		r.Route("/stores/{store_id}/products/{product_id}", func(r chi.Router) {
			r.Put("/", deps.StoreProducts.Link)
			r.Delete("/", deps.StoreProducts.Unlink)
		})
	})

	return r
}
