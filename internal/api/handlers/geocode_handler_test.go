package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardweistra/parkour-spot-api/internal/api/handlers"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

func TestGeocodeHandler_ReverseGeocode(t *testing.T) {
	handler := handlers.NewGeocodeHandler(&stubGeocoder{})

	req := httptest.NewRequest("GET", "/api/reverse-geocode?lat=52.3600&lon=4.8852", nil)
	w := httptest.NewRecorder()
	handler.ReverseGeocode(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Amsterdam", response["city"])
	assert.Equal(t, "NL", response["country_code"])
}

func TestGeocodeHandler_ReverseGeocode_InvalidCoordinates(t *testing.T) {
	handler := handlers.NewGeocodeHandler(&stubGeocoder{})

	cases := []string{
		"/api/reverse-geocode?lat=91&lon=4",
		"/api/reverse-geocode?lat=52&lon=181",
		"/api/reverse-geocode?lat=abc&lon=4",
		"/api/reverse-geocode?lon=4",
	}
	for _, target := range cases {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		handler.ReverseGeocode(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestGeocodeHandler_ReverseGeocode_UpstreamFailure(t *testing.T) {
	geocoder := &stubGeocoder{err: apperrors.NewExternalError("geocoding failed", nil)}
	handler := handlers.NewGeocodeHandler(geocoder)

	req := httptest.NewRequest("GET", "/api/reverse-geocode?lat=52.3600&lon=4.8852", nil)
	w := httptest.NewRecorder()
	handler.ReverseGeocode(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
