package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wardweistra/parkour-spot-api/internal/adapters/database"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/search"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/postgres"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/typesense"
	"github.com/wardweistra/parkour-spot-api/pkg/config"
)

const reindexBatchLimit = 1000

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	spotRepo := database.NewSpotAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	adapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Reset requested, deleting spots collection")
		if _, err := tsClient.Client().Collection(search.SpotsCollection).Delete(ctx); err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	indexed := 0
	offset := 0
	for {
		spots, err := spotRepo.List(ctx, repositories.SpotFilter{
			Limit:  reindexBatchLimit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(spots) == 0 {
			break
		}

		for _, spot := range spots {
			if spot == nil {
				continue
			}
			if err := adapter.Index(ctx, spot); err != nil {
				log.Printf("Warning: failed to index spot %s: %v", spot.ID, err)
				continue
			}
			indexed++
		}

		if len(spots) < reindexBatchLimit {
			break
		}
		offset += reindexBatchLimit
	}

	log.Printf("Indexed %d spots", indexed)
	return nil
}
