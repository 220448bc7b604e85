package entities

import (
	"time"
)

// AccessLevel describes the legal/physical accessibility of a spot
type AccessLevel string

const (
	AccessPublic     AccessLevel = "public"
	AccessRestricted AccessLevel = "restricted"
	AccessPaid       AccessLevel = "paid"
)

// FacilityState is the tri-state value of an amenity flag. Absence of a key
// in Spot.Facilities means "unknown"; a key is never stored with an empty value.
type FacilityState string

const (
	FacilityYes FacilityState = "yes"
	FacilityNo  FacilityState = "no"
)

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates are inside the WGS84 domain.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Spot represents a geotagged parkour location record
type Spot struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`

	Location Location `json:"location"`
	// PickedLocation overrides the device-sensed location when the submitter
	// picked a point on the map instead.
	PickedLocation *Location `json:"picked_location,omitempty"`

	Access     AccessLevel              `json:"access,omitempty"`
	Features   []string                 `json:"features,omitempty"`
	Facilities map[string]FacilityState `json:"facilities,omitempty"`
	GoodFor    []string                 `json:"good_for,omitempty"`

	Images []string `json:"images"`
	Videos []string `json:"videos,omitempty"`

	// Reverse-geocoded display fields; best-effort, may stay empty.
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`

	CreatedBy     string `json:"created_by"`
	CreatedByName string `json:"created_by_name,omitempty"`

	SourceID    string `json:"source_id,omitempty"`
	SourceName  string `json:"source_name,omitempty"`
	SourceRef   string `json:"source_ref,omitempty"`
	DuplicateOf string `json:"duplicate_of,omitempty"`

	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
	// RankScore is the Wilson score interval lower bound over the spot's
	// ratings, used to rank conservatively under sparse votes.
	RankScore float64 `json:"rank_score"`
	RankSeed  float64 `json:"rank_seed"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// EffectiveLocation returns the picked location when present, otherwise the
// sensed one. All geometry-dependent code goes through this.
func (s *Spot) EffectiveLocation() Location {
	if s.PickedLocation != nil {
		return *s.PickedLocation
	}
	return s.Location
}

// SetFacility sets, flips, or clears a tri-state amenity flag. Passing an
// empty state removes the key entirely so the map never holds a null entry.
func (s *Spot) SetFacility(key string, state FacilityState) {
	if state == "" {
		delete(s.Facilities, key)
		return
	}
	if s.Facilities == nil {
		s.Facilities = make(map[string]FacilityState)
	}
	s.Facilities[key] = state
}

// Rating is a single user's star rating of a spot. One row per (spot, user);
// resubmission replaces the previous value.
type Rating struct {
	ID        string    `json:"id"`
	SpotID    string    `json:"spot_id"`
	UserID    string    `json:"user_id"`
	Value     int       `json:"value"` // 1..5
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingSummary is the aggregate the backend maintains per spot.
type RatingSummary struct {
	SpotID    string  `json:"spot_id"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
	RankScore float64 `json:"rank_score"`
}
