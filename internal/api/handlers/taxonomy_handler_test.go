package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardweistra/parkour-spot-api/internal/api/handlers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/taxonomy"
)

func newTaxonomyMux() *http.ServeMux {
	handler := handlers.NewTaxonomyHandler()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/taxonomy", handler.ListCategories)
	mux.HandleFunc("GET /api/taxonomy/{category}", handler.GetCategory)
	return mux
}

func TestTaxonomyHandler_ListCategories(t *testing.T) {
	mux := newTaxonomyMux()

	req := httptest.NewRequest("GET", "/api/taxonomy", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, taxonomy.Categories(), response.Categories)
}

func TestTaxonomyHandler_GetCategory(t *testing.T) {
	mux := newTaxonomyMux()

	req := httptest.NewRequest("GET", "/api/taxonomy/"+taxonomy.CategoryFeatures, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Category string           `json:"category"`
		Entries  []taxonomy.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, taxonomy.CategoryFeatures, response.Category)
	assert.NotEmpty(t, response.Entries)
}

func TestTaxonomyHandler_GetCategory_Unknown(t *testing.T) {
	mux := newTaxonomyMux()

	req := httptest.NewRequest("GET", "/api/taxonomy/colors", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
