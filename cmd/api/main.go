package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ridersroast/motocafe-backend/api"
	"github.com/ridersroast/motocafe-backend/api/controllers"
	"github.com/ridersroast/motocafe-backend/api/routes"
	authsvc "github.com/ridersroast/motocafe-backend/internal/auth"
	"github.com/ridersroast/motocafe-backend/internal/catalog"
	checkoutsvc "github.com/ridersroast/motocafe-backend/internal/checkout"
	"github.com/ridersroast/motocafe-backend/internal/orders"
	"github.com/ridersroast/motocafe-backend/internal/payments"
	"github.com/ridersroast/motocafe-backend/pkg/config"
	"github.com/ridersroast/motocafe-backend/pkg/db"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/metrics"
	"github.com/ridersroast/motocafe-backend/pkg/migrate"
	"github.com/ridersroast/motocafe-backend/pkg/outbox"
	"github.com/ridersroast/motocafe-backend/pkg/redis"
	"github.com/ridersroast/motocafe-backend/pkg/square"
	"github.com/ridersroast/motocafe-backend/pkg/stripe"
)

// webhookGuardTTL bounds how long a provider event id is remembered in
// Redis. The inbox unique constraint remains the durable guard.
const webhookGuardTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	authService, err := authsvc.NewService(authsvc.NewAdminRepository(dbClient.DB()), cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, dbClient, catalog.NewStockAdjuster())
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	// Provider clients are optional; a missing credential disables that
	// provider's checkout and webhook surface instead of blocking boot.
	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe credentials absent, provider disabled")
	}

	var squareClient *square.Client
	if cfg.Square.AccessToken != "" {
		squareClient, err = square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create square client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "square credentials absent, provider disabled")
	}

	var stripeSessions checkoutsvc.StripeSessions
	if stripeClient != nil {
		stripeSessions = stripeClient
	}
	var squareLinks checkoutsvc.SquareLinks
	if squareClient != nil {
		squareLinks = squareClient
	}
	checkoutService, err := checkoutsvc.NewService(catalogRepo, stripeSessions, squareLinks, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())
	materializer, err := orders.NewMaterializer(dbClient, ordersRepo, catalogRepo, catalog.NewStockAdjuster(), emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create materializer", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(dbClient, ordersRepo, materializer, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	inboxRepo := payments.NewInboxRepository(dbClient.DB())
	ingestService, err := payments.NewIngestService(inboxRepo, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		Config: cfg,
		Logger: logg,
		Redis:  redisClient,
		Pingers: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
		AuthService:     authService,
		CatalogService:  catalogService,
		CheckoutService: checkoutService,
		OrdersService:   ordersService,
		Ingest:          ingestService,
	}

	if stripeClient != nil {
		verifier, err := payments.NewStripeVerifier(stripeClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe verifier", err)
			os.Exit(1)
		}
		guard, err := payments.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe")
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe guard", err)
			os.Exit(1)
		}
		deps.StripeVerifier = verifier
		deps.StripeGuard = guard
	}
	if squareClient != nil && cfg.Square.WebhookURL != "" {
		verifier, err := payments.NewSquareVerifier(squareClient, cfg.Square.WebhookURL)
		if err != nil {
			logg.Error(context.Background(), "failed to create square verifier", err)
			os.Exit(1)
		}
		guard, err := payments.NewIdempotencyGuard(redisClient, webhookGuardTTL, "square")
		if err != nil {
			logg.Error(context.Background(), "failed to create square guard", err)
			os.Exit(1)
		}
		deps.SquareVerifier = verifier
		deps.SquareGuard = guard
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(deps), logg)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
