package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/api/handlers"
	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/cache"
	"github.com/kunalverma25/flash-sale-backend/internal/config"
	"github.com/kunalverma25/flash-sale-backend/internal/events"
	"github.com/kunalverma25/flash-sale-backend/internal/health"
	"github.com/kunalverma25/flash-sale-backend/internal/metrics"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/internal/telemetry"
	"github.com/kunalverma25/flash-sale-backend/pkg/gateway"
	"github.com/kunalverma25/flash-sale-backend/pkg/sendGrid"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	shutdownTracing, err := telemetry.Init(context.Background(), cfg)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.Any("error", err))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.Any("error", err))
		os.Exit(1)
	}

	rateLimiter := repository.NewRateLimitRepo(redisClient, cfg)
	cacheStore := cache.NewRedisCache(redisClient, &cfg.Cache)

	// Event sink: Kafka when brokers are configured, no-op otherwise.
	var publisher events.Publisher
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		slog.Info("Kafka publisher enabled", slog.Any("brokers", brokers), slog.String("topic", cfg.Kafka.Topic))
	} else {
		publisher = events.NewNoopPublisher()
		slog.Warn("No Kafka brokers configured, events are discarded")
	}

	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("⚠️ Error closing event publisher", slog.Any("error", err))
		}
	}()

	paymentGateway := gateway.NewMockClient()
	sendGridClient := sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	userService := service.NewUserService(repos.User, rateLimiter, &cfg.Security)
	userHandler := handlers.NewUserHandler(userService)
	productService := service.NewProductService(repos.Product, cacheStore, publisher, cfg.Cache.DefaultTTL)
	productHandler := handlers.NewProductHandler(productService)
	cartService := service.NewCartService(repos.Cart, repos.Product, productService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutService := service.NewCheckoutService(repos.Order, repos.Cart, repos.Product, repos.User, paymentGateway, publisher, sendGridClient, cacheStore)
	orderService := service.NewOrderService(repos.Order)
	orderHandler := handlers.NewOrderHandler(checkoutService, orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentGateway)
	leaderboardService := service.NewLeaderboardService(repos.User, repos.Order, cacheStore, cfg.Cache.LeaderboardTTL)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	analyticsService := service.NewAnalyticsService(repos.Order, repos.Product)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error registering health checks", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))
	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.Authenticate(productHandler.CreateProduct()))
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("PATCH /api/v1/products/{id}", authMiddleware.Authenticate(productHandler.UpdateProduct()))
	routerMux.HandleFunc("GET /api/v1/products/{id}/availability", productHandler.CheckAvailability())
	routerMux.HandleFunc("POST /api/v1/products/{id}/restock", authMiddleware.Authenticate(productHandler.Restock()))
	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PATCH /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{id}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(orderHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{orderId}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("GET /api/v1/payments/{transactionId}/verify", authMiddleware.Authenticate(paymentHandler.VerifyTransaction()))
	routerMux.HandleFunc("GET /api/v1/leaderboard", leaderboardHandler.GetLeaderboard())
	routerMux.HandleFunc("GET /api/v1/analytics/sales", authMiddleware.Authenticate(analyticsHandler.SalesSummary()))
	routerMux.HandleFunc("GET /api/v1/analytics/products/{id}", authMiddleware.Authenticate(analyticsHandler.ProductPerformance()))
	routerMux.HandleFunc("GET /api/v1/analytics/traffic", authMiddleware.Authenticate(analyticsHandler.Traffic()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "flash-sale-backend")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	// Sale-window sweeper: closes ended sales and announces it.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if _, err := productService.ExpireEndedSales(sweepCtx); err != nil {
					slog.Error("⚠️ Sale window sweep failed", slog.Any("error", err))
				}
			}
		}
	}()

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.Any("error", err))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracing shutdown encountered an issue", slog.Any("error", err))
	}
}
