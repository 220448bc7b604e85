package handlers

import (
	"net/http"

	"github.com/wardweistra/parkour-spot-api/internal/domain/taxonomy"
)

// TaxonomyHandler serves the controlled vocabularies used by spot fields
type TaxonomyHandler struct{}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler() *TaxonomyHandler {
	return &TaxonomyHandler{}
}

// ListCategories handles GET /api/taxonomy
func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": taxonomy.Categories(),
	})
}

// GetCategory handles GET /api/taxonomy/{category}
func (h *TaxonomyHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	entries := taxonomy.Entries(category)
	if len(entries) == 0 {
		respondWithError(w, http.StatusNotFound, "unknown taxonomy category")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"entries":  entries,
	})
}
