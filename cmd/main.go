package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/clients"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/importer"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/sizes"
)

// @title Catalog Service API
// @version 1.0.0
// @description Partner catalog management with bulk CSV product import

// @host localhost:8088
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repository
	productsRepo := repository.NewProductsRepository(db, redisClient)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSUrl != "" {
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
			eventsPublisher = nil
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Category/size registry
	registry := sizes.Default()

	// Import pipeline: optional AI column classifier, deterministic fallback
	// is wired in by the importer itself
	var strategies []importer.MappingStrategy
	classifier := importer.NewClassifier(importer.ClassifierConfig{
		APIKey:  cfg.ClassifierAPIKey,
		Model:   cfg.ClassifierModel,
		BaseURL: cfg.ClassifierBaseURL,
		Timeout: cfg.ClassifierTimeout,
		Logger:  logrus.NewEntry(logger),
	})
	if classifier.IsConfigured() {
		strategies = append(strategies, classifier)
		log.Println("✓ AI column classifier enabled")
	} else {
		log.Println("OPENROUTER_API_KEY not set, using regex column mapping only")
	}

	partnerClient := clients.NewPartnerClient()
	normalizer := importer.NewNormalizer(registry, cfg.DefaultCurrency)

	// The events publisher doubles as the import completion notifier; a nil
	// interface avoids a typed-nil check inside the importer
	var notifier importer.CompletionNotifier
	if eventsPublisher != nil {
		notifier = eventsPublisher
	}

	imp := importer.NewImporter(productsRepo, partnerClient, notifier, normalizer, logger, strategies...)
	importManager := importer.NewManager(imp)

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(productsRepo, registry, eventsPublisher, cfg.DefaultCurrency, cfg.DefaultPageSize, cfg.MaxPageSize)
	importHandler := handlers.NewImportHandler(importManager)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", productsHandler.HealthCheck)
	router.GET("/ready", productsHandler.HealthCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	}
	api.Use(middleware.PartnerMiddleware())
	{
		products := api.Group("/products")
		{
			products.GET("", productsHandler.ListProducts)
			products.GET("/overview", productsHandler.GetCatalogOverview)
			products.GET("/:id", productsHandler.GetProduct)
			products.POST("", productsHandler.CreateProduct)
			products.DELETE("/:id", productsHandler.DeleteProduct)

			products.GET("/import/template", importHandler.GetImportTemplate)
			products.POST("/import", importHandler.StartImport)

			importSessions := products.Group("/import/sessions")
			{
				importSessions.GET("/:id", importHandler.GetImportSession)
				importSessions.PUT("/:id/rows/:index", importHandler.EditImportRow)
				importSessions.DELETE("/:id/rows/:index", importHandler.DeleteImportRow)
				importSessions.POST("/:id/confirm", importHandler.ConfirmImport)
				importSessions.POST("/:id/cancel", importHandler.CancelImport)
			}
		}

		api.GET("/categories", productsHandler.ListCategories)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")
	log.Println("Catalog service stopped")
}
