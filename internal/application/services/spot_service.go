package services

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/domain/taxonomy"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

const minDescriptionLength = 10

// SpotService handles business logic for spots
type SpotService struct {
	repo       repositories.SpotRepository
	ratings    repositories.RatingRepository
	searchRepo repositories.SpotSearchRepository
	geocoder   providers.GeocodingProvider
	eventBus   providers.EventBus
}

// NewSpotService creates a new spot service
func NewSpotService(
	repo repositories.SpotRepository,
	ratings repositories.RatingRepository,
	searchRepo repositories.SpotSearchRepository,
	geocoder providers.GeocodingProvider,
	eventBus providers.EventBus,
) *SpotService {
	return &SpotService{
		repo:       repo,
		ratings:    ratings,
		searchRepo: searchRepo,
		geocoder:   geocoder,
		eventBus:   eventBus,
	}
}

// Create validates and persists a new spot submitted by the actor
func (s *SpotService) Create(ctx context.Context, spot *entities.Spot, actor entities.Actor) error {
	if err := validateSpot(spot, actor, false); err != nil {
		return err
	}

	now := time.Now()
	if spot.ID == "" {
		spot.ID = uuid.New().String()
	}
	spot.Name = strings.TrimSpace(spot.Name)
	spot.Description = strings.TrimSpace(spot.Description)
	spot.CreatedBy = actor.ID
	spot.CreatedByName = actor.Name
	spot.CreatedAt = now
	spot.UpdatedAt = now
	spot.DeletedAt = nil
	spot.RatingAvg = 0
	spot.RatingCount = 0
	spot.RankScore = 0
	spot.RankSeed = rand.Float64()

	// Best-effort display enrichment; failures are logged and ignored
	s.enrichAddress(ctx, spot)

	if err := s.repo.Create(ctx, spot); err != nil {
		return err
	}

	s.index(ctx, spot)
	s.publish(ctx, spot, entities.SpotEventTypeCreated, nil)

	return nil
}

// GetByID retrieves a spot by ID. Soft-deleted spots are hidden from
// non-moderators.
func (s *SpotService) GetByID(ctx context.Context, id string, actor entities.Actor) (*entities.Spot, error) {
	spot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if spot.DeletedAt != nil && !actor.IsModerator() {
		return nil, apperrors.NewNotFoundError("spot " + id + " not found")
	}
	return spot, nil
}

// Update replaces a spot record. Only the creator or a moderator may edit.
func (s *SpotService) Update(ctx context.Context, spot *entities.Spot, actor entities.Actor) error {
	current, err := s.repo.GetByID(ctx, spot.ID)
	if err != nil {
		return err
	}
	if current.CreatedBy != actor.ID && !actor.IsModerator() {
		return apperrors.NewForbiddenError("only the creator or a moderator can edit a spot")
	}

	if err := validateSpot(spot, actor, true); err != nil {
		return err
	}

	spot.Name = strings.TrimSpace(spot.Name)
	spot.Description = strings.TrimSpace(spot.Description)

	// Provenance and aggregates are server-owned; carry them over
	spot.CreatedBy = current.CreatedBy
	spot.CreatedByName = current.CreatedByName
	spot.CreatedAt = current.CreatedAt
	spot.DeletedAt = current.DeletedAt
	spot.RatingAvg = current.RatingAvg
	spot.RatingCount = current.RatingCount
	spot.RankScore = current.RankScore
	spot.RankSeed = current.RankSeed
	spot.UpdatedAt = time.Now()

	if spot.EffectiveLocation() != current.EffectiveLocation() {
		spot.Address = ""
		spot.City = ""
		spot.CountryCode = ""
		s.enrichAddress(ctx, spot)
	}

	if err := s.repo.Update(ctx, spot); err != nil {
		return err
	}

	s.index(ctx, spot)
	s.publish(ctx, spot, entities.SpotEventTypeUpdated, nil)

	return nil
}

// Delete removes a spot. The default is a soft delete; hard deletion also
// drops the spot's ratings and is meant for spam, not moderation mistakes.
func (s *SpotService) Delete(ctx context.Context, id string, hard bool, actor entities.Actor) error {
	if !actor.IsModerator() {
		return apperrors.NewForbiddenError("only moderators can delete spots")
	}

	spot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if hard {
		if err := s.ratings.DeleteBySpot(ctx, id); err != nil {
			return err
		}
		if err := s.repo.HardDelete(ctx, id); err != nil {
			return err
		}
	} else {
		if err := s.repo.SoftDelete(ctx, id); err != nil {
			return err
		}
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Printf("Warning: Failed to delete spot %s from index: %v", id, err)
		}
	}
	s.publish(ctx, spot, entities.SpotEventTypeDeleted, map[string]interface{}{"hard": hard})

	return nil
}

// List retrieves spots matching the filter. Soft-deleted records require the
// moderator role.
func (s *SpotService) List(ctx context.Context, filter repositories.SpotFilter, actor entities.Actor) ([]*entities.Spot, error) {
	if filter.IncludeDeleted && !actor.IsModerator() {
		filter.IncludeDeleted = false
	}
	return s.repo.List(ctx, filter)
}

// RefreshAddress re-resolves a spot's display address. The lookup result is
// discarded when the spot changed while the geocoder was in flight, so a
// slow response can never overwrite fields derived from a newer location.
func (s *SpotService) RefreshAddress(ctx context.Context, id string) error {
	if s.geocoder == nil {
		return nil
	}

	spot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	asOf := spot.UpdatedAt
	location := spot.EffectiveLocation()

	address, err := s.geocoder.ReverseGeocode(ctx, location.Latitude, location.Longitude)
	if err != nil {
		log.Printf("Warning: Failed to reverse geocode spot %s: %v", id, err)
		return nil
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.UpdatedAt.Equal(asOf) {
		log.Printf("Discarding stale geocode result for spot %s", id)
		return nil
	}

	current.Address = address.FormattedAddress
	current.City = address.City
	current.CountryCode = address.CountryCode
	if err := s.repo.Update(ctx, current); err != nil {
		return err
	}

	s.index(ctx, current)
	return nil
}

func (s *SpotService) enrichAddress(ctx context.Context, spot *entities.Spot) {
	if s.geocoder == nil {
		return
	}
	location := spot.EffectiveLocation()
	address, err := s.geocoder.ReverseGeocode(ctx, location.Latitude, location.Longitude)
	if err != nil {
		log.Printf("Warning: Failed to reverse geocode spot %s: %v", spot.ID, err)
		return
	}
	spot.Address = address.FormattedAddress
	spot.City = address.City
	spot.CountryCode = address.CountryCode
}

func (s *SpotService) index(ctx context.Context, spot *entities.Spot) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, spot); err != nil {
		log.Printf("Warning: Failed to index spot %s: %v", spot.ID, err)
	}
}

func (s *SpotService) publish(ctx context.Context, spot *entities.Spot, eventType entities.SpotEventType, changed map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewSpotEvent(spot.ID, eventType, spot.EffectiveLocation(), changed)
	// Fan out to the global channel and the spot's own channel so both the
	// viewport stream and per-spot streams receive the event.
	for _, channel := range []string{providers.EventChannelSpotUpdates, providers.GetSpotChannel(spot.ID)} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			log.Printf("Warning: Failed to publish %s event for spot %s on %s: %v", eventType, spot.ID, channel, err)
		}
	}
}

// validateSpot enforces the submission rules. Moderators may edit without a
// description or images; everyone else needs both.
func validateSpot(spot *entities.Spot, actor entities.Actor, isEdit bool) error {
	if strings.TrimSpace(spot.Name) == "" {
		return apperrors.NewFieldValidationError("name", "name is required")
	}

	moderatorBypass := actor.IsModerator() && isEdit
	description := strings.TrimSpace(spot.Description)
	if !moderatorBypass {
		if description == "" {
			return apperrors.NewFieldValidationError("description", "description is required")
		}
		if len([]rune(description)) < minDescriptionLength {
			return apperrors.NewFieldValidationError("description", "description must be at least 10 characters")
		}
	}

	if len(spot.Images) == 0 && !actor.IsModerator() {
		return apperrors.NewFieldValidationError("images", "at least one image is required")
	}

	if !spot.Location.Valid() {
		return apperrors.NewFieldValidationError("location", "location is out of range")
	}
	if spot.PickedLocation != nil && !spot.PickedLocation.Valid() {
		return apperrors.NewFieldValidationError("picked_location", "picked location is out of range")
	}

	if err := validateVocabulary(spot); err != nil {
		return err
	}

	return nil
}

// validateVocabulary checks the categorical attributes against the closed
// vocabularies. Unknown keys are rejected at the write boundary; reads still
// degrade gracefully for data written by older schema versions.
func validateVocabulary(spot *entities.Spot) error {
	if spot.Access != "" && !taxonomyHas(taxonomy.CategoryAccess, string(spot.Access)) {
		return apperrors.NewFieldValidationError("access", "unknown access level: "+string(spot.Access))
	}
	for _, feature := range spot.Features {
		if !taxonomyHas(taxonomy.CategoryFeatures, feature) {
			return apperrors.NewFieldValidationError("features", "unknown feature: "+feature)
		}
	}
	for key, state := range spot.Facilities {
		if !taxonomyHas(taxonomy.CategoryFacilities, key) {
			return apperrors.NewFieldValidationError("facilities", "unknown facility: "+key)
		}
		if state != entities.FacilityYes && state != entities.FacilityNo {
			return apperrors.NewFieldValidationError("facilities", "invalid facility state: "+string(state))
		}
	}
	for _, skill := range spot.GoodFor {
		if !taxonomyHas(taxonomy.CategoryGoodFor, skill) {
			return apperrors.NewFieldValidationError("good_for", "unknown skill: "+skill)
		}
	}
	return nil
}

func taxonomyHas(category, key string) bool {
	for _, k := range taxonomy.Keys(category) {
		if k == key {
			return true
		}
	}
	return false
}
