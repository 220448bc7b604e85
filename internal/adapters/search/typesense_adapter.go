package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	tsclient "github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/typesense"
)

// SpotsCollection is the Typesense collection holding spot documents
const SpotsCollection = "spots"

// TypesenseAdapter implements spot search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements SpotSearchRepository
var _ repositories.SpotSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the spots collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(SpotsCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: SpotsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "access", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "features", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "good_for", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
			{Name: "city", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "country_code", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "rating_avg", Type: "float"},
			{Name: "rating_count", Type: "int32"},
			{Name: "rank_score", Type: "float"},
			{Name: "is_deleted", Type: "bool"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a spot document
func (a *TypesenseAdapter) Index(ctx context.Context, spot *entities.Spot) error {
	loc := spot.EffectiveLocation()
	document := map[string]interface{}{
		"id":           spot.ID,
		"name":         spot.Name,
		"description":  spot.Description,
		"tags":         spot.Tags,
		"access":       string(spot.Access),
		"features":     spot.Features,
		"good_for":     spot.GoodFor,
		"location":     []float64{loc.Latitude, loc.Longitude},
		"city":         spot.City,
		"country_code": spot.CountryCode,
		"rating_avg":   spot.RatingAvg,
		"rating_count": spot.RatingCount,
		"rank_score":   spot.RankScore,
		"is_deleted":   spot.DeletedAt != nil,
		"created_at":   spot.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(SpotsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index spot: %w", err)
	}

	return nil
}

// Delete removes a spot from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(SpotsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete spot from index: %w", err)
	}
	return nil
}

// Search matches spots by free text and optional viewport bounds
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Spot, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	page := 1
	if limit > 0 {
		page = params.Offset/limit + 1
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = "*"
	}

	filters := []string{"is_deleted:=false"}
	if b := params.Bounds; b != nil {
		// Rectangle as a counter-clockwise polygon filter
		filters = append(filters, fmt.Sprintf(
			"location:(%f, %f, %f, %f, %f, %f, %f, %f)",
			b.South, b.West,
			b.South, b.East,
			b.North, b.East,
			b.North, b.West,
		))
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("name,description,tags"),
		FilterBy: pointer.String(strings.Join(filters, " && ")),
		SortBy:   pointer.String("_text_match:desc,rank_score:desc"),
		Page:     pointer.Int(page),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(SpotsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search spots: %w", err)
	}

	spots := []*entities.Spot{}
	if result.Hits == nil {
		return spots, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		spots = append(spots, documentToSpot(*hit.Document))
	}

	return spots, nil
}

// documentToSpot rebuilds a partial Spot from a Typesense document. Callers
// needing the full record re-fetch by ID from the repository.
func documentToSpot(doc map[string]interface{}) *entities.Spot {
	spot := &entities.Spot{}

	if val, ok := doc["id"].(string); ok {
		spot.ID = val
	}
	if val, ok := doc["name"].(string); ok {
		spot.Name = val
	}
	if val, ok := doc["description"].(string); ok {
		spot.Description = val
	}
	if val, ok := doc["access"].(string); ok {
		spot.Access = entities.AccessLevel(val)
	}
	if val, ok := doc["city"].(string); ok {
		spot.City = val
	}
	if val, ok := doc["country_code"].(string); ok {
		spot.CountryCode = val
	}
	if val, ok := doc["rating_avg"].(float64); ok {
		spot.RatingAvg = val
	}
	if val, ok := doc["rating_count"].(float64); ok {
		spot.RatingCount = int(val)
	}
	if val, ok := doc["rank_score"].(float64); ok {
		spot.RankScore = val
	}
	spot.Tags = toStringSlice(doc["tags"])
	spot.Features = toStringSlice(doc["features"])
	spot.GoodFor = toStringSlice(doc["good_for"])

	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		lat, latOK := loc[0].(float64)
		lon, lonOK := loc[1].(float64)
		if latOK && lonOK {
			spot.Location = entities.Location{Latitude: lat, Longitude: lon}
		}
	}

	return spot
}

func toStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
