package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

var spotColumns = []interface{}{
	"id", "name", "description", "tags",
	"latitude", "longitude", "picked_latitude", "picked_longitude",
	"access", "features", "facilities", "good_for",
	"images", "videos",
	"address", "city", "country_code",
	"created_by", "created_by_name",
	"source_id", "source_name", "source_ref", "duplicate_of",
	"rating_avg", "rating_count", "rank_score", "rank_seed",
	"created_at", "updated_at", "deleted_at",
}

// SpotAdapter implements the SpotRepository interface
type SpotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSpotAdapter creates a new spot adapter
func NewSpotAdapter(client *postgres.Client) repositories.SpotRepository {
	return &SpotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new spot
func (a *SpotAdapter) Create(ctx context.Context, spot *entities.Spot) error {
	record, err := spotRecord(spot)
	if err != nil {
		return err
	}

	query, args, err := a.db.Insert("spots").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build spot insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create spot", err)
	}

	return nil
}

// GetByID retrieves a spot by ID
func (a *SpotAdapter) GetByID(ctx context.Context, id string) (*entities.Spot, error) {
	query, args, err := a.db.Select(spotColumns...).
		From("spots").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build spot select query", err)
	}

	spot, err := scanSpot(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("spot with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get spot", err)
	}

	return spot, nil
}

// GetByIDs retrieves multiple spots by their IDs
func (a *SpotAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Spot, error) {
	if len(ids) == 0 {
		return []*entities.Spot{}, nil
	}

	query, args, err := a.db.Select(spotColumns...).
		From("spots").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build spot select query", err)
	}

	return a.querySpots(ctx, query, args)
}

// GetBySourceRef retrieves a spot by its sync-source reference
func (a *SpotAdapter) GetBySourceRef(ctx context.Context, sourceID, sourceRef string) (*entities.Spot, error) {
	query, args, err := a.db.Select(spotColumns...).
		From("spots").
		Where(goqu.Ex{"source_id": sourceID, "source_ref": sourceRef}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build spot select query", err)
	}

	spot, err := scanSpot(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no spot for source %s ref %s", sourceID, sourceRef))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get spot by source ref", err)
	}

	return spot, nil
}

// Update replaces a spot record
func (a *SpotAdapter) Update(ctx context.Context, spot *entities.Spot) error {
	spot.UpdatedAt = time.Now()

	record, err := spotRecord(spot)
	if err != nil {
		return err
	}
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("spots").
		Set(record).
		Where(goqu.Ex{"id": spot.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build spot update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update spot", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("spot with id %s not found", spot.ID))
	}

	return nil
}

// SoftDelete tombstones a spot
func (a *SpotAdapter) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	query, args, err := a.db.Update("spots").
		Set(goqu.Record{"deleted_at": now, "updated_at": now}).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build spot delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete spot", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("spot with id %s not found", id))
	}

	return nil
}

// HardDelete removes a spot row entirely
func (a *SpotAdapter) HardDelete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("spots").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build spot delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to hard delete spot", err)
	}

	return nil
}

// List retrieves spots with filters
func (a *SpotAdapter) List(ctx context.Context, filter repositories.SpotFilter) ([]*entities.Spot, error) {
	ds := a.db.Select(spotColumns...).From("spots")

	if !filter.IncludeDeleted {
		ds = ds.Where(goqu.Ex{"deleted_at": nil})
	}
	if filter.CreatedBy != "" {
		ds = ds.Where(goqu.Ex{"created_by": filter.CreatedBy})
	}
	if filter.SourceID != "" {
		ds = ds.Where(goqu.Ex{"source_id": filter.SourceID})
	}

	ds = ds.Order(goqu.I("created_at").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit)).Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build spot list query", err)
	}

	return a.querySpots(ctx, query, args)
}

// ListInBounds retrieves spots inside a rectangular viewport. Bounds crossing
// the ±180° seam split the longitude predicate into two half-intervals.
// The predicate uses the picked location when one is set, falling back to the
// sensed coordinates, so the rows match what clients see on the map.
func (a *SpotAdapter) ListInBounds(ctx context.Context, bounds repositories.Bounds, limit int) ([]*entities.Spot, error) {
	ds := a.db.Select(spotColumns...).From("spots").
		Where(goqu.Ex{"deleted_at": nil}).
		Where(viewportExpressions(bounds)...).
		Order(goqu.I("created_at").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build viewport query", err)
	}

	return a.querySpots(ctx, query, args)
}

// viewportExpressions builds the bounds predicate over the effective location,
// picked coordinates when present and sensed coordinates otherwise.
func viewportExpressions(bounds repositories.Bounds) []goqu.Expression {
	lat := goqu.COALESCE(goqu.C("picked_latitude"), goqu.C("latitude"))
	lng := goqu.COALESCE(goqu.C("picked_longitude"), goqu.C("longitude"))

	exprs := []goqu.Expression{lat.Gte(bounds.South), lat.Lte(bounds.North)}
	if bounds.West > bounds.East {
		exprs = append(exprs, goqu.Or(lng.Gte(bounds.West), lng.Lte(bounds.East)))
	} else {
		exprs = append(exprs, lng.Gte(bounds.West), lng.Lte(bounds.East))
	}
	return exprs
}

func (a *SpotAdapter) querySpots(ctx context.Context, query string, args []interface{}) ([]*entities.Spot, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query spots", err)
	}
	defer rows.Close()

	spots := []*entities.Spot{}
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan spot", err)
		}
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate spots", err)
	}

	return spots, nil
}

// spotRecord converts a spot entity into a goqu insert/update record
func spotRecord(spot *entities.Spot) (goqu.Record, error) {
	facilities, err := json.Marshal(spot.Facilities)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal facilities", err)
	}

	record := goqu.Record{
		"id":          spot.ID,
		"name":        spot.Name,
		"description": spot.Description,
		"tags":        pq.Array(spot.Tags),
		"latitude":    spot.Location.Latitude,
		"longitude":   spot.Location.Longitude,
		"picked_latitude":  sql.NullFloat64{},
		"picked_longitude": sql.NullFloat64{},
		"access":       sql.NullString{String: string(spot.Access), Valid: spot.Access != ""},
		"features":     pq.Array(spot.Features),
		"facilities":   facilities,
		"good_for":     pq.Array(spot.GoodFor),
		"images":       pq.Array(spot.Images),
		"videos":       pq.Array(spot.Videos),
		"address":      sql.NullString{String: spot.Address, Valid: spot.Address != ""},
		"city":         sql.NullString{String: spot.City, Valid: spot.City != ""},
		"country_code": sql.NullString{String: spot.CountryCode, Valid: spot.CountryCode != ""},
		"created_by":      spot.CreatedBy,
		"created_by_name": sql.NullString{String: spot.CreatedByName, Valid: spot.CreatedByName != ""},
		"source_id":    sql.NullString{String: spot.SourceID, Valid: spot.SourceID != ""},
		"source_name":  sql.NullString{String: spot.SourceName, Valid: spot.SourceName != ""},
		"source_ref":   sql.NullString{String: spot.SourceRef, Valid: spot.SourceRef != ""},
		"duplicate_of": sql.NullString{String: spot.DuplicateOf, Valid: spot.DuplicateOf != ""},
		"rating_avg":   spot.RatingAvg,
		"rating_count": spot.RatingCount,
		"rank_score":   spot.RankScore,
		"rank_seed":    spot.RankSeed,
		"created_at":   spot.CreatedAt,
		"updated_at":   spot.UpdatedAt,
		"deleted_at":   spot.DeletedAt,
	}

	if spot.PickedLocation != nil {
		record["picked_latitude"] = sql.NullFloat64{Float64: spot.PickedLocation.Latitude, Valid: true}
		record["picked_longitude"] = sql.NullFloat64{Float64: spot.PickedLocation.Longitude, Valid: true}
	}

	return record, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpot(row rowScanner) (*entities.Spot, error) {
	spot := &entities.Spot{}

	var (
		pickedLat, pickedLng           sql.NullFloat64
		access, address, city, country sql.NullString
		createdByName                  sql.NullString
		sourceID, sourceName           sql.NullString
		sourceRef, duplicateOf         sql.NullString
		facilities                     []byte
		deletedAt                      sql.NullTime
	)

	err := row.Scan(
		&spot.ID, &spot.Name, &spot.Description, pq.Array(&spot.Tags),
		&spot.Location.Latitude, &spot.Location.Longitude, &pickedLat, &pickedLng,
		&access, pq.Array(&spot.Features), &facilities, pq.Array(&spot.GoodFor),
		pq.Array(&spot.Images), pq.Array(&spot.Videos),
		&address, &city, &country,
		&spot.CreatedBy, &createdByName,
		&sourceID, &sourceName, &sourceRef, &duplicateOf,
		&spot.RatingAvg, &spot.RatingCount, &spot.RankScore, &spot.RankSeed,
		&spot.CreatedAt, &spot.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if pickedLat.Valid && pickedLng.Valid {
		spot.PickedLocation = &entities.Location{
			Latitude:  pickedLat.Float64,
			Longitude: pickedLng.Float64,
		}
	}
	spot.Access = entities.AccessLevel(access.String)
	spot.Address = address.String
	spot.City = city.String
	spot.CountryCode = country.String
	spot.CreatedByName = createdByName.String
	spot.SourceID = sourceID.String
	spot.SourceName = sourceName.String
	spot.SourceRef = sourceRef.String
	spot.DuplicateOf = duplicateOf.String
	if deletedAt.Valid {
		spot.DeletedAt = &deletedAt.Time
	}

	if len(facilities) > 0 {
		if err := json.Unmarshal(facilities, &spot.Facilities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal facilities: %w", err)
		}
	}

	return spot, nil
}
