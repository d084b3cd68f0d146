package service

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/foodgram/internal/storage"
)

// CatalogService serves the read-only tag and ingredient catalogue.
type CatalogService struct {
	store  storage.CatalogStore
	logger *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(store storage.CatalogStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// ListTags returns every tag.
func (s *CatalogService) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]tagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, newTagView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetTag returns one tag.
func (s *CatalogService) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	tag, err := s.store.GetTag(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTagView(*tag))
}

// ListIngredients returns ingredients, optionally filtered by ?name= prefix.
func (s *CatalogService) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := s.store.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]ingredientView, 0, len(ingredients))
	for _, ing := range ingredients {
		views = append(views, newIngredientView(ing))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetIngredient returns one ingredient.
func (s *CatalogService) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	ing, err := s.store.GetIngredient(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newIngredientView(*ing))
}
