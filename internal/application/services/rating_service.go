package services

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

// wilsonZ is the z-value for a 95% confidence interval
const wilsonZ = 1.96

// positiveRatingThreshold: star values at or above this count as a positive
// vote for the Wilson proportion.
const positiveRatingThreshold = 4

// RatingService handles rating submission and aggregate maintenance. One
// rating per (spot, user); resubmitting replaces the previous value.
type RatingService struct {
	ratings    repositories.RatingRepository
	spots      repositories.SpotRepository
	searchRepo repositories.SpotSearchRepository
	eventBus   providers.EventBus
}

// NewRatingService creates a new rating service
func NewRatingService(
	ratings repositories.RatingRepository,
	spots repositories.SpotRepository,
	searchRepo repositories.SpotSearchRepository,
	eventBus providers.EventBus,
) *RatingService {
	return &RatingService{
		ratings:    ratings,
		spots:      spots,
		searchRepo: searchRepo,
		eventBus:   eventBus,
	}
}

// Rate records the actor's star rating for a spot and returns the recomputed
// aggregate. The rating row and the spot's summary are written in one
// transaction by the repository.
func (s *RatingService) Rate(ctx context.Context, spotID string, actor entities.Actor, value int) (*entities.RatingSummary, error) {
	if value < 1 || value > 5 {
		return nil, apperrors.NewFieldValidationError("value", "rating must be between 1 and 5")
	}

	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.DeletedAt != nil {
		return nil, apperrors.NewNotFoundError("spot " + spotID + " not found")
	}

	now := time.Now()
	rating := &entities.Rating{
		ID:        uuid.New().String(),
		SpotID:    spotID,
		UserID:    actor.ID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.ratings.GetBySpotAndUser(ctx, spotID, actor.ID); err == nil {
		rating.ID = existing.ID
		rating.CreatedAt = existing.CreatedAt
	}

	existing, err := s.ratings.ListBySpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	summary := summarize(spotID, replaceRating(existing, rating))

	if err := s.ratings.Upsert(ctx, rating, summary); err != nil {
		return nil, err
	}

	spot.RatingAvg = summary.Average
	spot.RatingCount = summary.Count
	spot.RankScore = summary.RankScore

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, spot); err != nil {
			log.Printf("Warning: Failed to reindex spot %s after rating: %v", spotID, err)
		}
	}

	if s.eventBus != nil {
		event := entities.NewSpotEvent(spotID, entities.SpotEventTypeRated, spot.EffectiveLocation(), map[string]interface{}{
			"rating_avg":   summary.Average,
			"rating_count": summary.Count,
		})
		for _, channel := range []string{providers.EventChannelSpotUpdates, providers.GetSpotChannel(spotID)} {
			if err := s.eventBus.Publish(ctx, channel, event); err != nil {
				log.Printf("Warning: Failed to publish rating event for spot %s on %s: %v", spotID, channel, err)
			}
		}
	}

	return summary, nil
}

// GetSummary returns the stored aggregate for a spot
func (s *RatingService) GetSummary(ctx context.Context, spotID string) (*entities.RatingSummary, error) {
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	return &entities.RatingSummary{
		SpotID:    spot.ID,
		Average:   spot.RatingAvg,
		Count:     spot.RatingCount,
		RankScore: spot.RankScore,
	}, nil
}

// replaceRating swaps the user's previous rating for the new one, appending
// when the user had none.
func replaceRating(ratings []*entities.Rating, rating *entities.Rating) []*entities.Rating {
	result := make([]*entities.Rating, 0, len(ratings)+1)
	replaced := false
	for _, r := range ratings {
		if r.UserID == rating.UserID {
			result = append(result, rating)
			replaced = true
			continue
		}
		result = append(result, r)
	}
	if !replaced {
		result = append(result, rating)
	}
	return result
}

// summarize computes the aggregate over a spot's ratings
func summarize(spotID string, ratings []*entities.Rating) *entities.RatingSummary {
	summary := &entities.RatingSummary{SpotID: spotID}
	if len(ratings) == 0 {
		return summary
	}

	sum := 0
	positives := 0
	for _, r := range ratings {
		sum += r.Value
		if r.Value >= positiveRatingThreshold {
			positives++
		}
	}

	summary.Count = len(ratings)
	summary.Average = float64(sum) / float64(len(ratings))
	summary.RankScore = WilsonLowerBound(positives, len(ratings))
	return summary
}

// WilsonLowerBound computes the lower bound of the Wilson score interval for
// the proportion of positive votes. It ranks sparse ratings conservatively:
// one 5-star vote scores below twenty votes averaging 4 stars.
func WilsonLowerBound(positives, total int) float64 {
	if total == 0 {
		return 0
	}

	n := float64(total)
	phat := float64(positives) / n
	z := wilsonZ
	z2 := z * z

	return (phat + z2/(2*n) - z*math.Sqrt((phat*(1-phat)+z2/(4*n))/n)) / (1 + z2/n)
}
