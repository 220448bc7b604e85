package geocoding_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardweistra/parkour-spot-api/internal/adapters/providers/geocoding"
)

const reverseResponse = `{
	"display_name": "Flevopark, Amsterdam, Noord-Holland, Nederland",
	"address": {"city": "Amsterdam", "country_code": "nl"}
}`

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reverseResponse))
	}))
	defer server.Close()

	provider := geocoding.NewNominatimProviderWithOptions(nil, server.URL, "ops@example.com", server.Client())

	address, err := provider.ReverseGeocode(context.Background(), 52.3676, 4.9041)
	require.NoError(t, err)

	// The base URL is the instance root; the reverse endpoint is derived from it
	assert.Equal(t, "/reverse", gotPath)
	assert.Equal(t, "jsonv2", gotQuery["format"])
	assert.Equal(t, "ops@example.com", gotQuery["email"])
	assert.NotEmpty(t, gotQuery["lat"])
	assert.NotEmpty(t, gotQuery["lon"])

	assert.Equal(t, "Flevopark, Amsterdam, Noord-Holland, Nederland", address.FormattedAddress)
	assert.Equal(t, "Amsterdam", address.City)
	assert.Equal(t, "NL", address.CountryCode)
}

func TestNominatimProvider_ReverseGeocode_TrailingSlashBaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reverseResponse))
	}))
	defer server.Close()

	provider := geocoding.NewNominatimProviderWithOptions(nil, server.URL+"/", "", server.Client())

	_, err := provider.ReverseGeocode(context.Background(), 52.3676, 4.9041)
	require.NoError(t, err)
	assert.Equal(t, "/reverse", gotPath)
}

func TestNominatimProvider_ReverseGeocode_NoEmailConfigured(t *testing.T) {
	var sawEmail bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawEmail = r.URL.Query().Has("email")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reverseResponse))
	}))
	defer server.Close()

	provider := geocoding.NewNominatimProviderWithOptions(nil, server.URL, "", server.Client())

	_, err := provider.ReverseGeocode(context.Background(), 52.3676, 4.9041)
	require.NoError(t, err)
	assert.False(t, sawEmail)
}
