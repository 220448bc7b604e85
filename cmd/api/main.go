package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wardweistra/parkour-spot-api/internal/adapters/cache"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/database"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/events"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/providers/geocoding"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/search"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/storage"
	"github.com/wardweistra/parkour-spot-api/internal/api/handlers"
	"github.com/wardweistra/parkour-spot-api/internal/api/middleware"
	"github.com/wardweistra/parkour-spot-api/internal/api/routes"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/postgres"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/redis"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/typesense"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/observability"
	"github.com/wardweistra/parkour-spot-api/pkg/config"
)

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.IsConfigured(); err != nil {
		log.Fatalf("Configuration check failed: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
	} else {
		log.Println("Typesense client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters

	// Create base spot adapter
	baseSpotAdapter := database.NewSpotAdapter(pgClient)

	// Wrap with caching if Redis is available (for read performance optimization)
	var spotAdapter repositories.SpotRepository
	if cacheProvider != nil {
		spotAdapter = database.NewCachedSpotAdapter(baseSpotAdapter, cacheProvider)
		log.Println("Spot adapter wrapped with caching layer")
	} else {
		spotAdapter = baseSpotAdapter
		log.Println("Spot adapter running without cache (Redis unavailable)")
	}

	ratingAdapter := database.NewRatingAdapter(pgClient)
	syncSourceAdapter := database.NewSyncSourceAdapter(pgClient)

	var searchRepo repositories.SpotSearchRepository

	if typesenseClient != nil {

		adapter := search.NewTypesenseAdapter(typesenseClient)

		// Ensure schema exists

		if err := adapter.InitSchema(context.Background()); err != nil {

			log.Printf("Warning: Failed to init Typesense schema: %v", err)

		}

		searchRepo = adapter

	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	var geocoder providers.GeocodingProvider
	switch cfg.Geocoder.Provider {
	case "nominatim":
		geocoder = geocoding.NewNominatimProviderWithOptions(cacheProvider, cfg.Geocoder.BaseURL, cfg.Geocoder.Email, nil)
	default:
		log.Println("Warning: using mock geocoding provider")
		geocoder = geocoding.NewMockProvider()
	}

	imageStore, err := storage.NewDiskImageStore(cfg.Storage.Root, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	// Initialize services

	spotService := services.NewSpotService(spotAdapter, ratingAdapter, searchRepo, geocoder, eventBus)
	viewportService := services.NewViewportService(spotAdapter, searchRepo)
	ratingService := services.NewRatingService(ratingAdapter, spotAdapter, searchRepo, eventBus)
	syncService := services.NewSyncService(syncSourceAdapter, spotAdapter, searchRepo, geocoder, eventBus, nil)
	moderationService := services.NewModerationService(spotAdapter, syncSourceAdapter, spotService, imageStore)

	// Initialize handlers

	spotHandler := handlers.NewSpotHandler(spotService, viewportService)

	ratingHandler := handlers.NewRatingHandler(ratingService)

	imageHandler := handlers.NewImageHandler(imageStore)

	taxonomyHandler := handlers.NewTaxonomyHandler()

	geocodeHandler := handlers.NewGeocodeHandler(geocoder)

	syncHandler := handlers.NewSyncHandler(syncService, metrics)
	moderationHandler := handlers.NewModerationHandler(moderationService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	authenticator := middleware.NewAuthenticator(cfg.Auth)

	// Set up router

	router := routes.NewRouter(
		spotHandler,
		ratingHandler,
		imageHandler,
		taxonomyHandler,
		geocodeHandler,
		syncHandler,
		moderationHandler,
		sseHandler,
		authenticator,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
