package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/odmarques/lojinha/internal"
	"github.com/odmarques/lojinha/internal/billing"
	"github.com/odmarques/lojinha/internal/handler/storefront"
	"github.com/odmarques/lojinha/internal/middleware"
	"github.com/odmarques/lojinha/internal/postgres"
	"github.com/odmarques/lojinha/internal/router"
	"github.com/odmarques/lojinha/internal/routes"
	"github.com/odmarques/lojinha/internal/service"
	"github.com/odmarques/lojinha/internal/session"
	"github.com/odmarques/lojinha/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	catalogStore := postgres.NewCatalogStore(pool)
	orderStore := postgres.NewOrderStore(pool)
	sessionStore := session.NewStore(pool)

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	stripeConfig := billing.StripeConfig{
		APIKey: cfg.Stripe.SecretKey,
	}
	billingProvider, err := billing.NewStripeProvider(stripeConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info("Stripe billing provider initialized", "test_mode", stripeConfig.IsTestMode())

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("lojinha")
	businessMetrics := telemetry.InitBusinessMetrics("lojinha")

	// Initialize services
	cartService := service.NewCartService(catalogStore, businessMetrics)
	checkoutService := service.NewCheckoutService(catalogStore, orderStore, businessMetrics, logger)
	orderService := service.NewOrderService(orderStore, businessMetrics, logger)
	paymentService := service.NewPaymentService(orderStore, billingProvider, cfg.BaseURL, businessMetrics, logger)

	// Build route dependencies
	storefrontDeps := routes.StorefrontDeps{
		ProductHandler:  storefront.NewProductHandler(catalogStore, businessMetrics),
		CartHandler:     storefront.NewCartHandler(cartService, sessionStore),
		ShippingHandler: storefront.NewShippingHandler(sessionStore, businessMetrics),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService, cartService, sessionStore, businessMetrics),
		OrderHandler:    storefront.NewOrderHandler(orderService, paymentService, sessionStore),
		LoginURL:        cfg.LoginURL,
	}

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.Logger(logger),
		middleware.WithSession(sessionStore, cfg.SecureCookies),
	)

	// Product images and other assets
	r.Static("/static/", "./web/static")

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)

	// Periodic sweep of expired session rows
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			deleted, err := sessionStore.DeleteExpired(ctx)
			if err != nil {
				logger.Error("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired sessions deleted", "count", deleted)
			}
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
