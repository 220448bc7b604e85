package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wardweistra/parkour-spot-api/internal/api/middleware"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
)

// RatingHandler handles spot rating HTTP requests
type RatingHandler struct {
	ratingService *services.RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

type rateRequest struct {
	Value int `json:"value"`
}

// RateSpot handles POST /api/spots/{id}/ratings. Rating the same spot again
// replaces the caller's previous rating.
func (h *RatingHandler) RateSpot(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.ratingService.Rate(r.Context(), spotID, actor, req.Value)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetRatingSummary handles GET /api/spots/{id}/ratings
func (h *RatingHandler) GetRatingSummary(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	summary, err := h.ratingService.GetSummary(r.Context(), spotID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
