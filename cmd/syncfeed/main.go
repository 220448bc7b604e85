package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/wardweistra/parkour-spot-api/internal/adapters/cache"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/database"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/events"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/providers/geocoding"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/search"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/postgres"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/redis"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/typesense"
	"github.com/wardweistra/parkour-spot-api/pkg/config"
)

// syncActor is the principal feed runs execute under when triggered from
// the command line instead of the API.
var syncActor = entities.Actor{ID: "syncfeed", Name: "Feed Sync", Role: entities.RoleModerator}

func main() {
	var sourceID string
	flag.StringVar(&sourceID, "source", "", "sync a single source by ID (default: all enabled sources)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
	} else {
		defer redisClient.Close()
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var searchRepo repositories.SpotSearchRepository
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
	} else {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		searchRepo = adapter
	}

	var geocoder providers.GeocodingProvider
	switch cfg.Geocoder.Provider {
	case "nominatim":
		geocoder = geocoding.NewNominatimProviderWithOptions(cacheProvider, cfg.Geocoder.BaseURL, cfg.Geocoder.Email, nil)
	default:
		geocoder = geocoding.NewMockProvider()
	}

	spotRepo := database.NewSpotAdapter(pgClient)
	sourceRepo := database.NewSyncSourceAdapter(pgClient)

	syncService := services.NewSyncService(sourceRepo, spotRepo, searchRepo, geocoder, eventBus, nil)

	sources, err := syncService.ListSources(ctx)
	if err != nil {
		log.Fatalf("Failed to list sync sources: %v", err)
	}

	ran := 0
	for _, source := range sources {
		if sourceID != "" && source.ID != sourceID {
			continue
		}
		if !source.Enabled {
			if sourceID != "" {
				log.Fatalf("Source %s is disabled", source.ID)
			}
			continue
		}

		run, err := syncService.Sync(ctx, source.ID, syncActor)
		if err != nil {
			log.Printf("Sync failed for %s (%s): %v", source.Name, source.ID, err)
			continue
		}
		log.Printf("Synced %s: %d created, %d updated, %d skipped", source.Name, run.Created, run.Updated, run.Skipped)
		ran++
	}

	if sourceID != "" && ran == 0 {
		log.Fatalf("Source %s not found", sourceID)
	}
	log.Printf("Completed %d sync run(s)", ran)
}
