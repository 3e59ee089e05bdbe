package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridersroast/motocafe-backend/api/controllers"
	webhookcontrollers "github.com/ridersroast/motocafe-backend/api/controllers/webhooks"
	"github.com/ridersroast/motocafe-backend/api/middleware"
	authsvc "github.com/ridersroast/motocafe-backend/internal/auth"
	"github.com/ridersroast/motocafe-backend/internal/catalog"
	checkoutsvc "github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/internal/orders"
	"github.com/ridersroast/motocafe-backend/internal/payments"
	"github.com/ridersroast/motocafe-backend/pkg/config"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/redis"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	Redis *redis.Client

	// Readiness probes, keyed by dependency name.
	Pingers map[string]controllers.Pinger

	AuthService     authsvc.Service
	CatalogService  catalog.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service

	StripeVerifier webhookcontrollers.PaymentVerifier
	SquareVerifier webhookcontrollers.PaymentVerifier
	StripeGuard    *payments.IdempotencyGuard
	SquareGuard    *payments.IdempotencyGuard
	Ingest         *payments.IngestService
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore(deps.Redis), logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeVerifier, guardOrNil(deps.StripeGuard), deps.Ingest, logg))
			r.Post("/square", webhookcontrollers.SquareWebhook(deps.SquareVerifier, guardOrNil(deps.SquareGuard), deps.Ingest, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, rateLimitStore(deps.Redis), logg)).
				Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		})

		r.Get("/products", controllers.ListProducts(deps.CatalogService, logg))
		r.Get("/products/{id}", controllers.GetProduct(deps.CatalogService, logg))
		r.Get("/delivery-options", controllers.ListDeliveryOptions(deps.CatalogService, logg))

		r.Post("/checkout/session", controllers.CreateCheckoutSession(deps.CheckoutService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.OrdersService, logg))
				r.Post("/", controllers.AdminCreateOrder(deps.OrdersService, logg))
				r.Get("/{id}", controllers.AdminGetOrder(deps.OrdersService, logg))
				r.Put("/{id}", controllers.AdminUpdateOrderStatus(deps.OrdersService, logg))
				r.Delete("/{id}", controllers.AdminDeleteOrder(deps.OrdersService, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.CatalogService, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.CatalogService, logg))
				r.Put("/{id}", controllers.AdminUpdateProduct(deps.CatalogService, logg))
				r.Post("/{id}/replenish", controllers.AdminReplenishStock(deps.CatalogService, logg))
			})
		})
	})

	return r
}

// Typed nil interfaces make the middleware treat an absent Redis client as
// a disabled feature instead of panicking on a nil pointer.
func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

func rateLimitStore(client *redis.Client) middleware.RateLimiterStore {
	if client == nil {
		return nil
	}
	return client
}

func guardOrNil(guard *payments.IdempotencyGuard) webhookcontrollers.Guard {
	if guard == nil {
		return nil
	}
	return guard
}
