package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/wardweistra/parkour-spot-api/internal/api/middleware"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
)

// ModerationHandler exposes the moderator maintenance operations
type ModerationHandler struct {
	moderationService *services.ModerationService
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// CleanupUnusedImages handles POST /api/moderation/cleanup-unused-images
func (h *ModerationHandler) CleanupUnusedImages(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	removed, err := h.moderationService.CleanupUnusedImages(r.Context(), actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
		"count":   len(removed),
	})
}

// FindMissingImages handles GET /api/moderation/missing-images
func (h *ModerationHandler) FindMissingImages(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	missing, err := h.moderationService.FindMissingImages(r.Context(), actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"missing": missing,
		"count":   len(missing),
	})
}

// FindOrphanedSpots handles GET /api/moderation/orphaned-spots
func (h *ModerationHandler) FindOrphanedSpots(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	orphans, err := h.moderationService.FindOrphanedSpots(r.Context(), actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"spots": orphans,
		"count": len(orphans),
	})
}

type bulkDeleteRequest struct {
	IDs  []string `json:"ids"`
	Hard bool     `json:"hard"`
}

// DeleteSpots handles POST /api/moderation/delete-spots
func (h *ModerationHandler) DeleteSpots(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "ids is required")
		return
	}

	deleted, err := h.moderationService.DeleteSpots(r.Context(), req.IDs, req.Hard, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
		"count":   len(deleted),
	})
}

// ReplaceImage handles PUT /api/moderation/spots/{id}/images/{index}. The
// body is the raw replacement image.
func (h *ModerationHandler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		respondWithError(w, http.StatusBadRequest, "invalid image index")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadRequest, "Content-Type must be an image type")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	body := http.MaxBytesReader(w, r.Body, maxImageUploadBytes)

	ref, err := h.moderationService.UploadReplacementImage(r.Context(), spotID, index, body, contentType, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

type markDuplicateRequest struct {
	DuplicateOf string `json:"duplicate_of"`
}

// MarkDuplicate handles POST /api/moderation/spots/{id}/mark-duplicate
func (h *ModerationHandler) MarkDuplicate(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("id")
	if spotID == "" {
		respondWithError(w, http.StatusBadRequest, "spot ID is required")
		return
	}

	var req markDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DuplicateOf == "" {
		respondWithError(w, http.StatusBadRequest, "duplicate_of is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	if err := h.moderationService.MarkDuplicate(r.Context(), spotID, req.DuplicateOf, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "marked"})
}

// UpdateCachedSourceNames handles POST /api/moderation/update-source-names
func (h *ModerationHandler) UpdateCachedSourceNames(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	updated, err := h.moderationService.UpdateCachedSourceNames(r.Context(), actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
