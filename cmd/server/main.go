package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fragrance-store/internal/config"
	"fragrance-store/internal/database"
	"fragrance-store/internal/handlers"
	"fragrance-store/internal/kafka"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"
	"fragrance-store/internal/services"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting fragrance store server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	discountService := services.NewDiscountService(db, redisClient, producer, log)
	catalogService := services.NewCatalogService(db, redisClient, discountService, log, &cfg.Catalog)
	productService := services.NewProductService(db, redisClient, producer, log)
	categoryService := services.NewCategoryService(db, redisClient, log)
	cartService := services.NewCartService(redisClient, &cfg.Cart, log)
	orderService := services.NewOrderService(db, discountService, cartService, producer, log)
	chatService := services.NewChatService(db, producer, log)
	analyticsService := services.NewAnalyticsService(db, redisClient, &cfg.Analytics, log)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	catalogHandler := handlers.NewCatalogHandler(catalogService, categoryService, log, &cfg.Catalog)
	discountHandler := handlers.NewDiscountHandler(discountService, log)
	productHandler := handlers.NewProductHandler(productService, log)
	categoryHandler := handlers.NewCategoryHandler(categoryService, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	cartHandler := handlers.NewCartHandler(cartService, log)
	chatHandler := handlers.NewChatHandler(chatService, log)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(catalogHandler, cartHandler, orderHandler, chatHandler, productHandler, categoryHandler, discountHandler, analyticsHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(catalogHandler *handlers.CatalogHandler, cartHandler *handlers.CartHandler, orderHandler *handlers.OrderHandler, chatHandler *handlers.ChatHandler, productHandler *handlers.ProductHandler, categoryHandler *handlers.CategoryHandler, discountHandler *handlers.DiscountHandler, analyticsHandler *handlers.AnalyticsHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Storefront: catalog
	mux.HandleFunc("/api/catalog/products", applyAPI(catalogHandler.ListProducts))
	mux.HandleFunc("/api/catalog/products/", applyAPI(catalogHandler.GetProduct))
	mux.HandleFunc("/api/catalog/brands", applyAPI(catalogHandler.ListBrands))
	mux.HandleFunc("/api/catalog/categories", applyAPI(catalogHandler.ListCategories))

	// Storefront: cart and checkout
	mux.HandleFunc("/api/cart", applyAPI(cartHandler.Handle))
	mux.HandleFunc("/api/orders", applyAPI(orderHandler.CreateOrder))
	mux.HandleFunc("/api/orders/", applyAPI(orderHandler.GetOrder))

	// Support chat
	mux.HandleFunc("/api/chat/conversations", applyAPI(chatHandler.HandleCollection))
	mux.HandleFunc("/api/chat/conversations/", applyAPI(chatHandler.HandleItem))

	// Admin: catalog management
	mux.HandleFunc("/api/admin/products", applyAPI(productHandler.HandleCollection))
	mux.HandleFunc("/api/admin/products/", applyAPI(productHandler.HandleItem))
	mux.HandleFunc("/api/admin/categories", applyAPI(categoryHandler.HandleCollection))
	mux.HandleFunc("/api/admin/categories/", applyAPI(categoryHandler.HandleItem))
	mux.HandleFunc("/api/admin/discounts", applyAPI(discountHandler.HandleCollection))
	mux.HandleFunc("/api/admin/discounts/", applyAPI(discountHandler.HandleItem))

	// Admin: orders and analytics
	mux.HandleFunc("/api/admin/orders", applyAPI(orderHandler.ListOrders))
	mux.HandleFunc("/api/admin/orders/", applyAPI(orderHandler.HandleAdminItem))
	mux.HandleFunc("/api/admin/analytics/sales", applyAPI(analyticsHandler.SalesReport))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(rateLimitHandler.Status))

	return mux
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeOrderCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order created event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeOrderStatusChanged, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order status changed event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeChatMessageCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing chat message event")
		return nil
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Cart-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
