package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

// RatingAdapter implements rating persistence in Postgres.
type RatingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRatingAdapter creates a new rating adapter.
func NewRatingAdapter(client *postgres.Client) repositories.RatingRepository {
	return &RatingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts or replaces the user's rating and writes the recomputed
// summary onto the spot row in the same transaction.
func (a *RatingAdapter) Upsert(ctx context.Context, rating *entities.Rating, summary *entities.RatingSummary) error {
	if rating == nil || summary == nil {
		return apperrors.NewInternalError("rating or summary is nil", fmt.Errorf("rating or summary is nil"))
	}

	insertQuery, insertArgs, err := a.db.Insert("ratings").
		Rows(goqu.Record{
			"id":         rating.ID,
			"spot_id":    rating.SpotID,
			"user_id":    rating.UserID,
			"value":      rating.Value,
			"created_at": rating.CreatedAt,
			"updated_at": rating.UpdatedAt,
		}).
		OnConflict(goqu.DoUpdate("spot_id, user_id", goqu.Record{
			"value":      rating.Value,
			"updated_at": rating.UpdatedAt,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build rating upsert query", err)
	}

	updateQuery, updateArgs, err := a.db.Update("spots").
		Set(goqu.Record{
			"rating_avg":   summary.Average,
			"rating_count": summary.Count,
			"rank_score":   summary.RankScore,
			"updated_at":   time.Now(),
		}).
		Where(goqu.Ex{"id": rating.SpotID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build rating summary query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin rating transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return apperrors.NewInternalError("failed to upsert rating", err)
	}
	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return apperrors.NewInternalError("failed to update rating summary", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit rating transaction", err)
	}

	return nil
}

// GetBySpotAndUser retrieves one user's rating of a spot.
func (a *RatingAdapter) GetBySpotAndUser(ctx context.Context, spotID, userID string) (*entities.Rating, error) {
	query, args, err := a.db.Select("id", "spot_id", "user_id", "value", "created_at", "updated_at").
		From("ratings").
		Where(goqu.Ex{"spot_id": spotID, "user_id": userID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rating select query", err)
	}

	rating := &entities.Rating{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&rating.ID, &rating.SpotID, &rating.UserID, &rating.Value,
		&rating.CreatedAt, &rating.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no rating by user %s for spot %s", userID, spotID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rating", err)
	}

	return rating, nil
}

// ListBySpot retrieves all ratings of a spot.
func (a *RatingAdapter) ListBySpot(ctx context.Context, spotID string) ([]*entities.Rating, error) {
	query, args, err := a.db.Select("id", "spot_id", "user_id", "value", "created_at", "updated_at").
		From("ratings").
		Where(goqu.Ex{"spot_id": spotID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build ratings list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query ratings", err)
	}
	defer rows.Close()

	ratings := []*entities.Rating{}
	for rows.Next() {
		rating := &entities.Rating{}
		if err := rows.Scan(
			&rating.ID, &rating.SpotID, &rating.UserID, &rating.Value,
			&rating.CreatedAt, &rating.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan rating", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate ratings", err)
	}

	return ratings, nil
}

// DeleteBySpot removes all ratings of a spot.
func (a *RatingAdapter) DeleteBySpot(ctx context.Context, spotID string) error {
	query, args, err := a.db.Delete("ratings").
		Where(goqu.Ex{"spot_id": spotID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build ratings delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete ratings", err)
	}

	return nil
}
