package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
)

// CachedSpotAdapter wraps SpotAdapter with caching
type CachedSpotAdapter struct {
	adapter repositories.SpotRepository
	cache   providers.CacheProvider
}

// NewCachedSpotAdapter creates a new cached spot adapter
func NewCachedSpotAdapter(adapter repositories.SpotRepository, cache providers.CacheProvider) repositories.SpotRepository {
	return &CachedSpotAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	spotByIDTTL    = 300 // 5 minutes for single spot
	spotsListTTL   = 180 // 3 minutes for lists
	spotsBoundsTTL = 60  // 1 minute for viewport queries
)

// Cache key generators
func spotCacheKey(id string) string {
	return fmt.Sprintf("spot:%s", id)
}

func spotsListCacheKey(filter repositories.SpotFilter) string {
	return fmt.Sprintf("spots:list:%s:%s:%t:%d:%d",
		filter.CreatedBy, filter.SourceID, filter.IncludeDeleted, filter.Limit, filter.Offset)
}

func spotsBoundsCacheKey(bounds repositories.Bounds, limit int) string {
	return fmt.Sprintf("spots:bounds:%.5f:%.5f:%.5f:%.5f:%d",
		bounds.South, bounds.West, bounds.North, bounds.East, limit)
}

// GetByID retrieves a spot by ID with caching
func (a *CachedSpotAdapter) GetByID(ctx context.Context, id string) (*entities.Spot, error) {
	cacheKey := spotCacheKey(id)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var spot entities.Spot
		if err := json.Unmarshal(cached, &spot); err == nil {
			return &spot, nil
		}
		// If unmarshal fails, continue to fetch from DB
		log.Printf("Failed to unmarshal cached spot %s: %v", id, err)
	}

	// Cache miss - fetch from database
	spot, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(spot); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, spotByIDTTL); err != nil {
				log.Printf("Failed to cache spot %s: %v", id, err)
			}
		}
	}()

	return spot, nil
}

// GetByIDs retrieves multiple spots by IDs with batch caching
func (a *CachedSpotAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Spot, error) {
	if len(ids) == 0 {
		return []*entities.Spot{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = spotCacheKey(id)
	}

	cached, _ := a.cache.GetMulti(ctx, cacheKeys)

	var cachedSpots []*entities.Spot
	missingIDs := make([]string, 0)

	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var spot entities.Spot
			if err := json.Unmarshal(data, &spot); err == nil {
				cachedSpots = append(cachedSpots, &spot)
				continue
			}
		}
		missingIDs = append(missingIDs, id)
	}

	// If all were cached, return them
	if len(missingIDs) == 0 {
		return cachedSpots, nil
	}

	// Fetch missing spots from database
	dbSpots, err := a.adapter.GetByIDs(ctx, missingIDs)
	if err != nil {
		return nil, err
	}

	// Cache the missing spots asynchronously using batch operation
	go func() {
		bgCtx := context.Background()
		items := make(map[string][]byte)
		for _, spot := range dbSpots {
			if data, err := json.Marshal(spot); err == nil {
				items[spotCacheKey(spot.ID)] = data
			}
		}
		if len(items) > 0 {
			if err := a.cache.SetMulti(bgCtx, items, spotByIDTTL); err != nil {
				log.Printf("Failed to batch cache spots: %v", err)
			}
		}
	}()

	return append(cachedSpots, dbSpots...), nil
}

// GetBySourceRef is a sync-path lookup; it bypasses the cache because feed
// imports must never act on stale rows.
func (a *CachedSpotAdapter) GetBySourceRef(ctx context.Context, sourceID, sourceRef string) (*entities.Spot, error) {
	return a.adapter.GetBySourceRef(ctx, sourceID, sourceRef)
}

// List retrieves a list of spots with caching
func (a *CachedSpotAdapter) List(ctx context.Context, filter repositories.SpotFilter) ([]*entities.Spot, error) {
	cacheKey := spotsListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var spots []*entities.Spot
		if err := json.Unmarshal(cached, &spots); err == nil {
			return spots, nil
		}
		log.Printf("Failed to unmarshal cached spots list: %v", err)
	}

	spots, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(spots); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, spotsListTTL); err != nil {
				log.Printf("Failed to cache spots list: %v", err)
			}
		}
	}()

	return spots, nil
}

// ListInBounds retrieves viewport results with a short-lived cache
func (a *CachedSpotAdapter) ListInBounds(ctx context.Context, bounds repositories.Bounds, limit int) ([]*entities.Spot, error) {
	cacheKey := spotsBoundsCacheKey(bounds, limit)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var spots []*entities.Spot
		if err := json.Unmarshal(cached, &spots); err == nil {
			return spots, nil
		}
		log.Printf("Failed to unmarshal cached viewport spots: %v", err)
	}

	spots, err := a.adapter.ListInBounds(ctx, bounds, limit)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(spots); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, spotsBoundsTTL); err != nil {
				log.Printf("Failed to cache viewport spots: %v", err)
			}
		}
	}()

	return spots, nil
}

// Create creates a spot and invalidates related caches
func (a *CachedSpotAdapter) Create(ctx context.Context, spot *entities.Spot) error {
	if err := a.adapter.Create(ctx, spot); err != nil {
		return err
	}

	go a.invalidateLists()

	return nil
}

// Update updates a spot and invalidates its cache
func (a *CachedSpotAdapter) Update(ctx context.Context, spot *entities.Spot) error {
	if err := a.adapter.Update(ctx, spot); err != nil {
		return err
	}

	go a.invalidateSpot(spot.ID)

	return nil
}

// SoftDelete tombstones a spot and invalidates its cache
func (a *CachedSpotAdapter) SoftDelete(ctx context.Context, id string) error {
	if err := a.adapter.SoftDelete(ctx, id); err != nil {
		return err
	}

	go a.invalidateSpot(id)

	return nil
}

// HardDelete removes a spot and invalidates its cache
func (a *CachedSpotAdapter) HardDelete(ctx context.Context, id string) error {
	if err := a.adapter.HardDelete(ctx, id); err != nil {
		return err
	}

	go a.invalidateSpot(id)

	return nil
}

func (a *CachedSpotAdapter) invalidateSpot(id string) {
	bgCtx := context.Background()
	if err := a.cache.Delete(bgCtx, spotCacheKey(id)); err != nil {
		log.Printf("Failed to invalidate spot cache %s: %v", id, err)
	}
	a.invalidateListsCtx(bgCtx)
}

func (a *CachedSpotAdapter) invalidateLists() {
	a.invalidateListsCtx(context.Background())
}

func (a *CachedSpotAdapter) invalidateListsCtx(ctx context.Context) {
	if err := a.cache.DeletePattern(ctx, "spots:list:*"); err != nil {
		log.Printf("Failed to invalidate spots list cache: %v", err)
	}
	if err := a.cache.DeletePattern(ctx, "spots:bounds:*"); err != nil {
		log.Printf("Failed to invalidate viewport cache: %v", err)
	}
}
