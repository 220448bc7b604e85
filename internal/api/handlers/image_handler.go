package handlers

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
)

const maxImageUploadBytes = 10 << 20 // 10 MiB

// ImageHandler serves and accepts spot image uploads
type ImageHandler struct {
	store providers.ImageStore
}

// NewImageHandler creates a new image handler
func NewImageHandler(store providers.ImageStore) *ImageHandler {
	return &ImageHandler{store: store}
}

// UploadImage handles POST /api/images. The request body is the raw image;
// Content-Type selects the stored format.
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadRequest, "Content-Type must be an image type")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	ref, err := h.store.Save(r.Context(), body, contentType)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"ref": ref,
		"url": h.store.URL(ref),
	})
}

// ServeImage handles GET /api/images/{ref}
func (h *ImageHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if ref == "" {
		respondWithError(w, http.StatusBadRequest, "image reference is required")
		return
	}

	reader, err := h.store.Open(r.Context(), ref)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(pathExt(ref)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		// Response is already streaming; nothing useful left to send.
		return
	}
}

func pathExt(ref string) string {
	if idx := strings.LastIndex(ref, "."); idx >= 0 {
		return ref[idx:]
	}
	return ""
}
