package repositories

import (
	"context"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

// SpotRepository defines the interface for spot data operations
type SpotRepository interface {
	// Create creates a new spot
	Create(ctx context.Context, spot *entities.Spot) error

	// GetByID retrieves a spot by ID
	GetByID(ctx context.Context, id string) (*entities.Spot, error)

	// GetByIDs retrieves multiple spots by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Spot, error)

	// GetBySourceRef retrieves a spot by its sync-source reference
	GetBySourceRef(ctx context.Context, sourceID, sourceRef string) (*entities.Spot, error)

	// Update replaces a spot record
	Update(ctx context.Context, spot *entities.Spot) error

	// SoftDelete tombstones a spot
	SoftDelete(ctx context.Context, id string) error

	// HardDelete removes a spot row entirely
	HardDelete(ctx context.Context, id string) error

	// List retrieves spots with filters
	List(ctx context.Context, filter SpotFilter) ([]*entities.Spot, error)

	// ListInBounds retrieves spots inside a rectangular viewport
	ListInBounds(ctx context.Context, bounds Bounds, limit int) ([]*entities.Spot, error)
}

// SpotSearchRepository defines the interface for spot text search (e.g. Typesense)
type SpotSearchRepository interface {
	// Search matches spots by free text and optional geo filter
	Search(ctx context.Context, params SearchParams) ([]*entities.Spot, error)

	// Index upserts a spot document into the index
	Index(ctx context.Context, spot *entities.Spot) error

	// Delete removes a spot from the index
	Delete(ctx context.Context, id string) error
}

// Bounds is a rectangular geographic viewport given by its south-west and
// north-east corners.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Contains reports whether a location lies inside the bounds. A viewport
// whose west edge is east of its east edge crosses the ±180° seam and the
// longitude test splits into two half-intervals.
func (b Bounds) Contains(loc entities.Location) bool {
	if loc.Latitude < b.South || loc.Latitude > b.North {
		return false
	}
	if b.West > b.East {
		return loc.Longitude >= b.West || loc.Longitude <= b.East
	}
	return loc.Longitude >= b.West && loc.Longitude <= b.East
}

// SpotFilter defines filters for listing spots
type SpotFilter struct {
	CreatedBy      string
	SourceID       string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// SearchParams defines parameters for spot search
type SearchParams struct {
	Query  string
	Bounds *Bounds
	Limit  int
	Offset int
}
