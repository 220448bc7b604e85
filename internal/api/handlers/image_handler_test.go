package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardweistra/parkour-spot-api/internal/api/handlers"
)

func newImageFixture() (*stubImageStore, *http.ServeMux) {
	store := newStubImageStore()
	handler := handlers.NewImageHandler(store)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/images", handler.UploadImage)
	mux.HandleFunc("GET /api/images/{ref}", handler.ServeImage)
	return store, mux
}

func TestImageHandler_UploadAndServe(t *testing.T) {
	store, mux := newImageFixture()

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	req := httptest.NewRequest("POST", "/api/images", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "image/jpeg")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.NotEmpty(t, response["ref"])
	assert.Contains(t, response["url"], response["ref"])
	assert.Contains(t, store.blobs, response["ref"])

	get := httptest.NewRequest("GET", "/api/images/"+response["ref"], nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, get)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, w.Body.Bytes())
}

func TestImageHandler_Upload_RejectsNonImage(t *testing.T) {
	_, mux := newImageFixture()

	req := httptest.NewRequest("POST", "/api/images", bytes.NewReader([]byte("plain text")))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImageHandler_Serve_NotFound(t *testing.T) {
	_, mux := newImageFixture()

	req := httptest.NewRequest("GET", "/api/images/missing.jpg", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
