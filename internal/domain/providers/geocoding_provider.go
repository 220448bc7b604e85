package providers

import (
	"context"
)

// GeocodingProvider defines the interface for reverse geocoding lookups.
// Lookups are best-effort enrichment: callers log failures and move on.
type GeocodingProvider interface {
	// ReverseGeocode converts coordinates to an address
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodedAddress, error)
}

// GeocodedAddress represents a reverse-geocoded location
type GeocodedAddress struct {
	FormattedAddress string
	City             string
	CountryCode      string
}
