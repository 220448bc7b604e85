package geocoding

import (
	"context"
	"fmt"

	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
)

// MockProvider implements a mock geocoding provider for testing and
// development without network access.
type MockProvider struct{}

// NewMockProvider creates a new mock geocoding provider
func NewMockProvider() providers.GeocodingProvider {
	return &MockProvider{}
}

// ReverseGeocode converts coordinates to an address (mock implementation)
func (m *MockProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	// Rough city buckets so local development sees plausible values
	mockCities := []struct {
		lat, lon, radius float64
		city, country    string
	}{
		{48.8566, 2.3522, 1.0, "Paris", "FR"},
		{52.3676, 4.9041, 1.0, "Amsterdam", "NL"},
		{51.5074, -0.1278, 1.0, "London", "GB"},
		{40.7128, -74.0060, 1.0, "New York", "US"},
	}

	for _, c := range mockCities {
		if lat >= c.lat-c.radius && lat <= c.lat+c.radius &&
			lon >= c.lon-c.radius && lon <= c.lon+c.radius {
			return &providers.GeocodedAddress{
				FormattedAddress: fmt.Sprintf("%s (%.4f, %.4f)", c.city, lat, lon),
				City:             c.city,
				CountryCode:      c.country,
			}, nil
		}
	}

	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%.4f, %.4f", lat, lon),
		City:             "",
		CountryCode:      "",
	}, nil
}
