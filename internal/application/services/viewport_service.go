package services

import (
	"context"
	"strings"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
)

// ViewportService computes the subset of spots visible for a map viewport
// and an optional free-text query.
type ViewportService struct {
	repo       repositories.SpotRepository
	searchRepo repositories.SpotSearchRepository
}

// NewViewportService creates a new viewport service
func NewViewportService(repo repositories.SpotRepository, searchRepo repositories.SpotSearchRepository) *ViewportService {
	return &ViewportService{
		repo:       repo,
		searchRepo: searchRepo,
	}
}

// VisibleSpots returns the spots that should be rendered for the given query
// and viewport. A nil bounds means the map is not initialized yet; the result
// is then the query-filtered set with no geographic restriction.
func (s *ViewportService) VisibleSpots(ctx context.Context, query string, bounds *repositories.Bounds, limit int) ([]*entities.Spot, error) {
	query = strings.TrimSpace(query)

	if query != "" && s.searchRepo != nil {
		return s.searchRepo.Search(ctx, repositories.SearchParams{
			Query:  query,
			Bounds: bounds,
			Limit:  limit,
		})
	}

	if bounds == nil {
		spots, err := s.repo.List(ctx, repositories.SpotFilter{Limit: limit})
		if err != nil {
			return nil, err
		}
		return MatchQuery(spots, query), nil
	}

	spots, err := s.repo.ListInBounds(ctx, *bounds, limit)
	if err != nil {
		return nil, err
	}
	// The repository already restricted by bounds; re-applying the containment
	// test here keeps picked locations honest, since the query ran against the
	// sensed coordinates.
	return MatchQuery(FilterByBounds(spots, bounds), query), nil
}

// MarkerSet derives the marker map keyed by spot identifier
func (s *ViewportService) MarkerSet(spots []*entities.Spot) map[string]*entities.Spot {
	markers := make(map[string]*entities.Spot, len(spots))
	for _, spot := range spots {
		markers[spot.ID] = spot
	}
	return markers
}

// FilterByBounds returns the spots whose effective location lies inside the
// bounds, preserving input order. A nil bounds applies no restriction.
func FilterByBounds(spots []*entities.Spot, bounds *repositories.Bounds) []*entities.Spot {
	if bounds == nil {
		return spots
	}
	visible := make([]*entities.Spot, 0, len(spots))
	for _, spot := range spots {
		if bounds.Contains(spot.EffectiveLocation()) {
			visible = append(visible, spot)
		}
	}
	return visible
}

// MatchQuery reduces spots to those matching a case-insensitive substring
// query over name, description and tags, preserving input order. An empty
// query matches everything.
func MatchQuery(spots []*entities.Spot, query string) []*entities.Spot {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return spots
	}

	matched := make([]*entities.Spot, 0, len(spots))
	for _, spot := range spots {
		if spotMatches(spot, query) {
			matched = append(matched, spot)
		}
	}
	return matched
}

func spotMatches(spot *entities.Spot, query string) bool {
	if strings.Contains(strings.ToLower(spot.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(spot.Description), query) {
		return true
	}
	for _, tag := range spot.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
