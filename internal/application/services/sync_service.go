package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/ingest"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
	"github.com/wardweistra/parkour-spot-api/pkg/retry"
)

// duplicateRadiusMeters: a draft whose name matches an existing spot within
// this distance is treated as the same spot, not a new one.
const duplicateRadiusMeters = 25.0

const defaultFeedTimeout = 30 * time.Second

// SyncService ingests external feeds (KML/KMZ/GeoJSON) into spots
type SyncService struct {
	sources    repositories.SyncSourceRepository
	spots      repositories.SpotRepository
	searchRepo repositories.SpotSearchRepository
	geocoder   providers.GeocodingProvider
	eventBus   providers.EventBus
	httpClient *http.Client
}

// NewSyncService creates a new sync service
func NewSyncService(
	sources repositories.SyncSourceRepository,
	spots repositories.SpotRepository,
	searchRepo repositories.SpotSearchRepository,
	geocoder providers.GeocodingProvider,
	eventBus providers.EventBus,
	httpClient *http.Client,
) *SyncService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFeedTimeout}
	}
	return &SyncService{
		sources:    sources,
		spots:      spots,
		searchRepo: searchRepo,
		geocoder:   geocoder,
		eventBus:   eventBus,
		httpClient: httpClient,
	}
}

// CreateSource registers a new sync source. Moderator-only.
func (s *SyncService) CreateSource(ctx context.Context, source *entities.SyncSource, actor entities.Actor) error {
	if !actor.IsModerator() {
		return apperrors.NewForbiddenError("only moderators can manage sync sources")
	}
	if strings.TrimSpace(source.Name) == "" {
		return apperrors.NewFieldValidationError("name", "name is required")
	}
	if strings.TrimSpace(source.URL) == "" {
		return apperrors.NewFieldValidationError("url", "url is required")
	}
	switch source.Format {
	case entities.FeedFormatKML, entities.FeedFormatKMZ, entities.FeedFormatGeoJSON:
	default:
		return apperrors.NewFieldValidationError("format", "format must be kml, kmz or geojson")
	}

	now := time.Now()
	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	source.CreatedAt = now
	source.UpdatedAt = now
	return s.sources.Create(ctx, source)
}

// UpdateSource updates a sync source. Moderator-only.
func (s *SyncService) UpdateSource(ctx context.Context, source *entities.SyncSource, actor entities.Actor) error {
	if !actor.IsModerator() {
		return apperrors.NewForbiddenError("only moderators can manage sync sources")
	}
	source.UpdatedAt = time.Now()
	return s.sources.Update(ctx, source)
}

// ListSources retrieves all sync sources
func (s *SyncService) ListSources(ctx context.Context) ([]*entities.SyncSource, error) {
	return s.sources.List(ctx)
}

// DeleteSource removes a sync source. Spots imported from it are kept.
func (s *SyncService) DeleteSource(ctx context.Context, id string, actor entities.Actor) error {
	if !actor.IsModerator() {
		return apperrors.NewForbiddenError("only moderators can manage sync sources")
	}
	return s.sources.Delete(ctx, id)
}

// Sync fetches a source's feed and reconciles it into the spot collection.
// Returns the run statistics, which are also recorded on the source.
func (s *SyncService) Sync(ctx context.Context, sourceID string, actor entities.Actor) (*entities.SyncRun, error) {
	if !actor.IsModerator() {
		return nil, apperrors.NewForbiddenError("only moderators can trigger feed sync")
	}

	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.Enabled {
		return nil, apperrors.NewConflictError(fmt.Sprintf("sync source %s is disabled", source.Name))
	}

	drafts, err := s.fetchFeed(ctx, source)
	if err != nil {
		return nil, err
	}

	// Existing imports from this source, for name+proximity matching of
	// feed entries that carry no stable reference
	existing, err := s.spots.List(ctx, repositories.SpotFilter{SourceID: source.ID, IncludeDeleted: true})
	if err != nil {
		return nil, err
	}

	run := &entities.SyncRun{SourceID: source.ID, RanAt: time.Now()}
	for _, draft := range drafts {
		if err := s.reconcile(ctx, source, draft, existing, actor, run); err != nil {
			log.Printf("Warning: Failed to sync entry %q from %s: %v", draft.Name, source.Name, err)
			run.Failed++
		}
	}

	if err := s.sources.RecordRun(ctx, run); err != nil {
		log.Printf("Warning: Failed to record sync run for %s: %v", source.Name, err)
	}

	return run, nil
}

func (s *SyncService) fetchFeed(ctx context.Context, source *entities.SyncSource) ([]entities.SpotDraft, error) {
	var drafts []entities.SpotDraft

	err := retry.Do(ctx, retry.FeedConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
		if err != nil {
			return err
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("feed returned status %d", resp.StatusCode)
		}

		drafts, err = ingest.Decode(source.Format, resp.Body)
		return err
	})
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to fetch feed %s", source.Name), err)
	}

	return drafts, nil
}

// reconcile applies one draft: update when it matches an existing import,
// create otherwise.
func (s *SyncService) reconcile(
	ctx context.Context,
	source *entities.SyncSource,
	draft entities.SpotDraft,
	existing []*entities.Spot,
	actor entities.Actor,
	run *entities.SyncRun,
) error {
	match := s.findMatch(ctx, source, draft, existing)

	if match != nil {
		if match.DeletedAt != nil {
			// A tombstoned import stays deleted; the feed does not resurrect it
			run.Skipped++
			return nil
		}
		changed := false
		if draft.Name != "" && draft.Name != match.Name {
			match.Name = draft.Name
			changed = true
		}
		if draft.Description != "" && draft.Description != match.Description {
			match.Description = draft.Description
			changed = true
		}
		if draft.Location != match.Location {
			match.Location = draft.Location
			changed = true
		}
		if draft.SourceRef != "" && match.SourceRef == "" {
			match.SourceRef = draft.SourceRef
			changed = true
		}
		if !changed {
			run.Skipped++
			return nil
		}

		match.SourceName = source.Name
		match.UpdatedAt = time.Now()
		if err := s.spots.Update(ctx, match); err != nil {
			return err
		}
		s.indexAndPublish(ctx, match)
		run.Updated++
		return nil
	}

	now := time.Now()
	spot := &entities.Spot{
		ID:            uuid.New().String(),
		Name:          draft.Name,
		Description:   draft.Description,
		Location:      draft.Location,
		Images:        draft.Images,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		SourceID:      source.ID,
		SourceName:    source.Name,
		SourceRef:     draft.SourceRef,
		RankSeed:      rand.Float64(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if s.geocoder != nil {
		if address, err := s.geocoder.ReverseGeocode(ctx, spot.Location.Latitude, spot.Location.Longitude); err == nil {
			spot.Address = address.FormattedAddress
			spot.City = address.City
			spot.CountryCode = address.CountryCode
			run.Geocoded++
		} else {
			log.Printf("Warning: Failed to geocode synced spot %q: %v", spot.Name, err)
		}
	}

	if err := s.spots.Create(ctx, spot); err != nil {
		return err
	}
	s.indexAndPublish(ctx, spot)
	run.Created++
	return nil
}

// findMatch locates the existing spot a draft refers to: first by the feed's
// stable reference, then by equal name within duplicateRadiusMeters.
func (s *SyncService) findMatch(ctx context.Context, source *entities.SyncSource, draft entities.SpotDraft, existing []*entities.Spot) *entities.Spot {
	if draft.SourceRef != "" {
		if spot, err := s.spots.GetBySourceRef(ctx, source.ID, draft.SourceRef); err == nil {
			return spot
		}
	}

	for _, spot := range existing {
		if !strings.EqualFold(spot.Name, draft.Name) {
			continue
		}
		if haversineMeters(spot.Location, draft.Location) <= duplicateRadiusMeters {
			return spot
		}
	}
	return nil
}

func (s *SyncService) indexAndPublish(ctx context.Context, spot *entities.Spot) {
	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, spot); err != nil {
			log.Printf("Warning: Failed to index synced spot %s: %v", spot.ID, err)
		}
	}
	if s.eventBus != nil {
		event := entities.NewSpotEvent(spot.ID, entities.SpotEventTypeSynced, spot.EffectiveLocation(), nil)
		for _, channel := range []string{providers.EventChannelSpotUpdates, providers.GetSpotChannel(spot.ID)} {
			if err := s.eventBus.Publish(ctx, channel, event); err != nil {
				log.Printf("Warning: Failed to publish sync event for spot %s on %s: %v", spot.ID, channel, err)
			}
		}
	}
}

// haversineMeters computes the great-circle distance between two locations
func haversineMeters(a, b entities.Location) float64 {
	const earthRadiusMeters = 6371000.0

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
