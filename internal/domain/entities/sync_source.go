package entities

import (
	"time"
)

// FeedFormat is the wire format of an external sync feed
type FeedFormat string

const (
	FeedFormatKML     FeedFormat = "kml"
	FeedFormatKMZ     FeedFormat = "kmz"
	FeedFormatGeoJSON FeedFormat = "geojson"
)

// SyncSource describes an external feed that is periodically ingested to
// create or update spots in bulk.
type SyncSource struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Format    FeedFormat `json:"format"`
	Enabled   bool       `json:"enabled"`
	LastRun   *SyncRun   `json:"last_run,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SyncRun captures the statistics of one ingestion pass over a source.
type SyncRun struct {
	SourceID string    `json:"source_id"`
	RanAt    time.Time `json:"ran_at"`
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Geocoded int       `json:"geocoded"`
	Failed   int       `json:"failed"`
}

// SpotDraft is a decoded feed entry before it becomes a Spot. Name and
// location are the only fields every feed format carries.
type SpotDraft struct {
	Name        string
	Description string
	Location    Location
	SourceRef   string // stable identifier inside the feed, when present
	Images      []string
}
