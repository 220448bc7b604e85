package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wardweistra/parkour-spot-api/internal/api/middleware"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/observability"
)

// SyncHandler manages external feed sources and sync runs
type SyncHandler struct {
	syncService *services.SyncService
	metrics     *observability.Metrics
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *services.SyncService, metrics *observability.Metrics) *SyncHandler {
	return &SyncHandler{syncService: syncService, metrics: metrics}
}

// CreateSource handles POST /api/sync/sources
func (h *SyncHandler) CreateSource(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var source entities.SyncSource
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.syncService.CreateSource(r.Context(), &source, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, source)
}

// UpdateSource handles PUT /api/sync/sources/{id}
func (h *SyncHandler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	if sourceID == "" {
		respondWithError(w, http.StatusBadRequest, "source ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())

	var source entities.SyncSource
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	source.ID = sourceID

	if err := h.syncService.UpdateSource(r.Context(), &source, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, source)
}

// ListSources handles GET /api/sync/sources
func (h *SyncHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.syncService.ListSources(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})
}

// DeleteSource handles DELETE /api/sync/sources/{id}
func (h *SyncHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	if sourceID == "" {
		respondWithError(w, http.StatusBadRequest, "source ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	if err := h.syncService.DeleteSource(r.Context(), sourceID, actor); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TriggerSync handles POST /api/sync/sources/{id}/sync
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	if sourceID == "" {
		respondWithError(w, http.StatusBadRequest, "source ID is required")
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	run, err := h.syncService.Sync(r.Context(), sourceID, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	observability.RecordSpotsSynced(r.Context(), h.metrics, sourceID, run.Created+run.Updated)
	respondWithJSON(w, http.StatusOK, run)
}
