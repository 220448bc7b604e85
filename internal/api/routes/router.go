package routes

import (
	"net/http"

	"github.com/wardweistra/parkour-spot-api/internal/api/handlers"
	"github.com/wardweistra/parkour-spot-api/internal/api/middleware"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	spotHandler *handlers.SpotHandler

	ratingHandler *handlers.RatingHandler

	imageHandler *handlers.ImageHandler

	taxonomyHandler *handlers.TaxonomyHandler

	geocodeHandler *handlers.GeocodeHandler

	syncHandler       *handlers.SyncHandler
	moderationHandler *handlers.ModerationHandler

	sseHandler *handlers.SSEHandler

	authenticator *middleware.Authenticator
	metrics       *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	spotHandler *handlers.SpotHandler,

	ratingHandler *handlers.RatingHandler,

	imageHandler *handlers.ImageHandler,

	taxonomyHandler *handlers.TaxonomyHandler,

	geocodeHandler *handlers.GeocodeHandler,

	syncHandler *handlers.SyncHandler,
	moderationHandler *handlers.ModerationHandler,

	sseHandler *handlers.SSEHandler,

	authenticator *middleware.Authenticator,
	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		spotHandler: spotHandler,

		ratingHandler: ratingHandler,

		imageHandler: imageHandler,

		taxonomyHandler: taxonomyHandler,

		geocodeHandler: geocodeHandler,

		syncHandler:       syncHandler,
		moderationHandler: moderationHandler,

		sseHandler: sseHandler,

		authenticator: authenticator,
		metrics:       metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	auth := r.authenticator

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Spot endpoints

	r.mux.HandleFunc("GET /api/spots", auth.OptionalAuth(r.spotHandler.ListSpots))

	r.mux.HandleFunc("GET /api/spots/{id}", auth.OptionalAuth(r.spotHandler.GetSpot))

	r.mux.HandleFunc("POST /api/spots", auth.RequireAuth(r.spotHandler.CreateSpot))

	r.mux.HandleFunc("PUT /api/spots/{id}", auth.RequireAuth(r.spotHandler.UpdateSpot))

	r.mux.HandleFunc("DELETE /api/spots/{id}", auth.RequireModerator(r.spotHandler.DeleteSpot))

	r.mux.HandleFunc("POST /api/spots/{id}/refresh-address", auth.RequireModerator(r.spotHandler.RefreshSpotAddress))

	// Rating endpoints

	r.mux.HandleFunc("POST /api/spots/{id}/ratings", auth.RequireAuth(r.ratingHandler.RateSpot))

	r.mux.HandleFunc("GET /api/spots/{id}/ratings", r.ratingHandler.GetRatingSummary)

	// Image endpoints

	r.mux.HandleFunc("POST /api/images", auth.RequireAuth(r.imageHandler.UploadImage))

	r.mux.HandleFunc("GET /api/images/{ref}", r.imageHandler.ServeImage)

	// Taxonomy endpoints

	r.mux.HandleFunc("GET /api/taxonomy", r.taxonomyHandler.ListCategories)

	r.mux.HandleFunc("GET /api/taxonomy/{category}", r.taxonomyHandler.GetCategory)

	// Geolocation endpoints

	r.mux.HandleFunc("GET /api/reverse-geocode", r.geocodeHandler.ReverseGeocode)

	// Sync source endpoints

	r.mux.HandleFunc("GET /api/sync/sources", auth.RequireModerator(r.syncHandler.ListSources))

	r.mux.HandleFunc("POST /api/sync/sources", auth.RequireModerator(r.syncHandler.CreateSource))

	r.mux.HandleFunc("PUT /api/sync/sources/{id}", auth.RequireModerator(r.syncHandler.UpdateSource))

	r.mux.HandleFunc("DELETE /api/sync/sources/{id}", auth.RequireModerator(r.syncHandler.DeleteSource))

	r.mux.HandleFunc("POST /api/sync/sources/{id}/sync", auth.RequireModerator(r.syncHandler.TriggerSync))

	// Moderation endpoints

	r.mux.HandleFunc("POST /api/moderation/cleanup-unused-images", auth.RequireModerator(r.moderationHandler.CleanupUnusedImages))

	r.mux.HandleFunc("GET /api/moderation/missing-images", auth.RequireModerator(r.moderationHandler.FindMissingImages))

	r.mux.HandleFunc("GET /api/moderation/orphaned-spots", auth.RequireModerator(r.moderationHandler.FindOrphanedSpots))

	r.mux.HandleFunc("POST /api/moderation/delete-spots", auth.RequireModerator(r.moderationHandler.DeleteSpots))

	r.mux.HandleFunc("PUT /api/moderation/spots/{id}/images/{index}", auth.RequireModerator(r.moderationHandler.ReplaceImage))

	r.mux.HandleFunc("POST /api/moderation/spots/{id}/mark-duplicate", auth.RequireModerator(r.moderationHandler.MarkDuplicate))

	r.mux.HandleFunc("POST /api/moderation/update-source-names", auth.RequireModerator(r.moderationHandler.UpdateCachedSourceNames))

	// Streaming endpoints
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/spots", r.sseHandler.StreamViewportUpdates)
		r.mux.HandleFunc("GET /api/stream/spots/{id}", r.sseHandler.StreamSpotUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so error responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on auth failures
	handler = middleware.CORSMiddleware(handler)

	return handler
}
