package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wardweistra/parkour-spot-api/internal/api/middleware"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
)

const defaultListLimit = 200

// SpotHandler handles spot-related HTTP requests
type SpotHandler struct {
	spotService     *services.SpotService
	viewportService *services.ViewportService
}

// NewSpotHandler creates a new spot handler
func NewSpotHandler(spotService *services.SpotService, viewportService *services.ViewportService) *SpotHandler {
	return &SpotHandler{
		spotService:     spotService,
		viewportService: viewportService,
	}
}

// CreateSpot handles POST /api/spots
func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var spot entities.Spot
	if err := json.NewDecoder(r.Body).Decode(&spot); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.spotService.Create(r.Context(), &spot, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, spot)
}

// GetSpot handles GET /api/spots/{id}
func (h *SpotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	spot, err := h.spotService.GetByID(r.Context(), spotID, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, spot)
}

// ListSpots handles GET /api/spots
//
// Without bounds parameters this lists spots; with south/west/north/east it
// returns the viewport subset, optionally reduced by a q= text query.
func (h *SpotHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultListLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	bounds, err := parseBounds(query)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	spots, err := h.viewportService.VisibleSpots(r.Context(), query.Get("q"), bounds, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"spots": spots,
		"count": len(spots),
	})
}

// UpdateSpot handles PUT /api/spots/{id}
func (h *SpotHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())

	var spot entities.Spot
	if err := json.NewDecoder(r.Body).Decode(&spot); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	spot.ID = spotID

	if err := h.spotService.Update(r.Context(), &spot, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, spot)
}

// DeleteSpot handles DELETE /api/spots/{id}; ?hard=true removes the row
// instead of tombstoning it.
func (h *SpotHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	hard := r.URL.Query().Get("hard") == "true"

	if err := h.spotService.Delete(r.Context(), spotID, hard, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RefreshSpotAddress handles POST /api/spots/{id}/refresh-address
func (h *SpotHandler) RefreshSpotAddress(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	if err := h.spotService.RefreshAddress(r.Context(), spotID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// parseBounds reads viewport bounds from query parameters. All four edges
// must be present together; none at all means no geographic restriction.
func parseBounds(query url.Values) (*repositories.Bounds, error) {
	raw := [4]string{query.Get("south"), query.Get("west"), query.Get("north"), query.Get("east")}

	present := 0
	for _, v := range raw {
		if v != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != 4 {
		return nil, errors.New("south, west, north and east must be provided together")
	}

	values := [4]float64{}
	for i, v := range raw {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("bounds parameters must be numbers")
		}
		values[i] = parsed
	}

	return &repositories.Bounds{
		South: values[0],
		West:  values[1],
		North: values[2],
		East:  values[3],
	}, nil
}
