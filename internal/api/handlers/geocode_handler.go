package handlers

import (
	"net/http"
	"strconv"

	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
)

// GeocodeHandler exposes reverse geocoding lookups
type GeocodeHandler struct {
	geocoder providers.GeocodingProvider
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(geocoder providers.GeocodingProvider) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=..&lon=..
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		respondWithError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}

	address, err := h.geocoder.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"formatted_address": address.FormattedAddress,
		"city":              address.City,
		"country_code":      address.CountryCode,
	})
}
