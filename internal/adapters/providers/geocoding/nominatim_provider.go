package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
)

const (
	nominatimBaseURL       = "https://nominatim.openstreetmap.org"
	defaultReverseCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
	userAgent              = "parkour-spot-api/1.0"
)

// NominatimProvider implements reverse geocoding against the OSM Nominatim API.
// baseURL is the instance root; the /reverse endpoint path is appended per call.
type NominatimProvider struct {
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	email      string
}

// NewNominatimProvider creates a new Nominatim geocoding provider.
func NewNominatimProvider(cache providers.CacheProvider) providers.GeocodingProvider {
	return NewNominatimProviderWithOptions(cache, nominatimBaseURL, "", nil)
}

// NewNominatimProviderWithOptions allows overriding the instance base URL,
// the contact email and the HTTP client (used for tests and self-hosted
// instances).
func NewNominatimProviderWithOptions(cache providers.CacheProvider, baseURL, email string, httpClient *http.Client) providers.GeocodingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimProvider{
		httpClient: httpClient,
		cache:      cache,
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
	}
}

// ReverseGeocode converts coordinates to an address.
func (p *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	cacheKey := "geo:v1:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", lat, lon))
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var address providers.GeocodedAddress
			if err := json.Unmarshal(cached, &address); err == nil && address.FormattedAddress != "" {
				return &address, nil
			}
		}
	}

	resp, err := p.doReverseRequest(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("reverse geocode failed: %s", resp.Error)
	}
	if resp.DisplayName == "" {
		return nil, fmt.Errorf("no results for coordinates")
	}

	address := providers.GeocodedAddress{
		FormattedAddress: resp.DisplayName,
		City:             resp.Address.cityName(),
		CountryCode:      strings.ToUpper(resp.Address.CountryCode),
	}

	if p.cache != nil {
		if payload, err := json.Marshal(address); err == nil {
			_ = p.cache.Set(ctx, cacheKey, payload, defaultReverseCacheTTL)
		}
	}

	return &address, nil
}

func (p *NominatimProvider) doReverseRequest(ctx context.Context, lat, lon float64) (*nominatimReverseResponse, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "jsonv2")
	params.Set("zoom", "16")
	// Nominatim's usage policy asks for a contact address on every request.
	if p.email != "" {
		params.Set("email", p.email)
	}

	reqURL := fmt.Sprintf("%s/reverse?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reverse geocode request returned status %d", resp.StatusCode)
	}

	var payload nominatimReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	return &payload, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type nominatimReverseResponse struct {
	Error       string           `json:"error,omitempty"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	CountryCode  string `json:"country_code"`
}

// cityName picks the most specific populated-place name the response carries.
func (a nominatimAddress) cityName() string {
	for _, name := range []string{a.City, a.Town, a.Village, a.Municipality} {
		if name != "" {
			return name
		}
	}
	return ""
}
