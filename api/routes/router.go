package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopcart/shopcart-backend/api/controllers"
	cartctrl "github.com/shopcart/shopcart-backend/api/controllers/cart"
	ordersctrl "github.com/shopcart/shopcart-backend/api/controllers/orders"
	"github.com/shopcart/shopcart-backend/api/middleware"
	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
	orderssvc "github.com/shopcart/shopcart-backend/internal/orders"
	"github.com/shopcart/shopcart-backend/internal/payments"
	"github.com/shopcart/shopcart-backend/pkg/config"
	"github.com/shopcart/shopcart-backend/pkg/db"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Sessions *cartstore.Sessions
	Registry *payments.Registry
	Orders   orderssvc.Service
}

// New assembles the HTTP surface.
func New(deps Deps) chi.Router {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(nil))

	r.Get("/health/live", controllers.Live())
	r.Get("/health/ready", controllers.Ready(deps.DB, deps.Redis))
	r.Handle("/metrics", promhttp.Handler())

	checkout := controllers.CheckoutDeps{
		Sessions: deps.Sessions,
		Registry: deps.Registry,
		Orders:   deps.Orders,
		Currency: deps.Config.Pricing.Currency,
		Logger:   logg,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartctrl.Get(deps.Sessions, logg))
			r.Delete("/", cartctrl.Clear(deps.Sessions, logg))
			r.Post("/items", cartctrl.AddItem(deps.Sessions, logg))
			r.Patch("/items/{productID}", cartctrl.UpdateQuantity(deps.Sessions, logg))
			r.Delete("/items/{productID}", cartctrl.RemoveItem(deps.Sessions, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/intent", controllers.CreateIntent(checkout))
			r.Post("/confirm", controllers.ConfirmPayment(checkout))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersctrl.List(deps.Orders, logg))
			r.Post("/", ordersctrl.Create(deps.Orders, logg))
			r.Post("/finalize", ordersctrl.Finalize(deps.Orders, logg))
			r.Get("/{orderID}", ordersctrl.GetByID(deps.Orders, logg))
		})
	})

	return r
}
