package repositories

import (
	"context"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

// RatingRepository defines the interface for rating persistence. Upsert and
// the aggregate write-back happen in one transaction so the spot's summary
// can never drift from its rows.
type RatingRepository interface {
	// Upsert inserts or replaces the user's rating for a spot and stores the
	// recomputed summary on the spot row.
	Upsert(ctx context.Context, rating *entities.Rating, summary *entities.RatingSummary) error

	// GetBySpotAndUser retrieves one user's rating of a spot
	GetBySpotAndUser(ctx context.Context, spotID, userID string) (*entities.Rating, error)

	// ListBySpot retrieves all ratings of a spot
	ListBySpot(ctx context.Context, spotID string) ([]*entities.Rating, error)

	// DeleteBySpot removes all ratings of a spot (hard spot delete)
	DeleteBySpot(ctx context.Context, spotID string) error
}
