package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/shopping"
	"github.com/mmynk/foodgram/internal/shortcode"
	"github.com/mmynk/foodgram/internal/storage"
)

// DefaultSaveAttempts bounds how often a recipe save is retried when its
// freshly generated short code is taken concurrently.
const DefaultSaveAttempts = 5

// RecipeService serves recipes, favorites, the shopping cart and short links.
type RecipeService struct {
	store        storage.RecipeStore
	codes        *shortcode.Generator
	shopping     *shopping.Aggregator
	publicURL    string
	saveAttempts int
	logger       *slog.Logger
}

// NewRecipeService creates a RecipeService.
func NewRecipeService(store storage.RecipeStore, codes *shortcode.Generator, aggregator *shopping.Aggregator, publicURL string, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:        store,
		codes:        codes,
		shopping:     aggregator,
		publicURL:    publicURL,
		saveAttempts: DefaultSaveAttempts,
		logger:       logger,
	}
}

type recipeIngredientInput struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int   `json:"amount" validate:"min=1,max=10000"`
}

type recipeRequest struct {
	Ingredients []recipeIngredientInput `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []int64                 `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Image       string                  `json:"image" validate:"omitempty,imagedata"`
	Name        string                  `json:"name" validate:"required,max=256"`
	Text        string                  `json:"text" validate:"required"`
	CookingTime int                     `json:"cooking_time" validate:"min=1"`
}

func (req *recipeRequest) apply(recipe *models.Recipe) {
	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	if req.Image != "" {
		recipe.Image = req.Image
	}

	recipe.Tags = make([]models.Tag, 0, len(req.Tags))
	for _, id := range req.Tags {
		recipe.Tags = append(recipe.Tags, models.Tag{ID: id})
	}
	recipe.Ingredients = make([]models.RecipeIngredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: ing.ID,
			Amount:       ing.Amount,
		})
	}
}

// List returns a filtered page of recipes.
func (s *RecipeService) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	filter := models.RecipeFilter{
		ViewerID:           middleware.GetUserID(r.Context()),
		TagSlugs:           r.URL.Query()["tags"],
		OnlyFavorited:      queryFlag(r, "is_favorited"),
		OnlyInShoppingCart: queryFlag(r, "is_in_shopping_cart"),
		Limit:              page.Limit,
		Offset:             page.Offset(),
	}
	if raw := r.URL.Query().Get("author"); raw != "" {
		authorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, s.logger, badRequest("author must be a user id"))
			return
		}
		filter.AuthorID = authorID
	}

	recipes, total, err := s.store.ListRecipes(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]recipeView, 0, len(recipes))
	for _, recipe := range recipes {
		views = append(views, newRecipeView(recipe))
	}
	writeJSON(w, http.StatusOK, newPage(r, baseURL(r, s.publicURL), page, total, views))
}

// Get returns one recipe.
func (s *RecipeService) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.pathRecipe(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecipeView(recipe))
}

// Create publishes a recipe and assigns its short code.
func (s *RecipeService) Create(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Image == "" {
		writeError(w, s.logger, badRequest("image is required"))
		return
	}

	userID := middleware.GetUserID(r.Context())
	recipe := &models.Recipe{AuthorID: userID}
	req.apply(recipe)

	if err := s.createWithShortCode(r.Context(), recipe); err != nil {
		s.logger.Warn("Failed to create recipe", "user_id", userID, "error", err)
		writeError(w, s.logger, err)
		return
	}

	created, err := s.store.GetRecipe(r.Context(), recipe.ID, userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Recipe created", "recipe_id", recipe.ID, "short_code", recipe.ShortCode, "user_id", userID)
	writeJSON(w, http.StatusCreated, newRecipeView(created))
}

// createWithShortCode generates a code and saves the recipe, retrying with a
// fresh code when another save claimed the same code in between.
func (s *RecipeService) createWithShortCode(ctx context.Context, recipe *models.Recipe) error {
	for attempt := 1; ; attempt++ {
		code, err := s.codes.Generate(ctx, s.store.ShortCodeExists)
		if err != nil {
			return fmt.Errorf("failed to generate short code: %w", err)
		}
		recipe.ShortCode = code

		err = s.store.CreateRecipe(ctx, recipe)
		if errors.Is(err, storage.ErrShortCodeTaken) && attempt < s.saveAttempts {
			s.logger.Warn("Short code taken on save, retrying", "short_code", code, "attempt", attempt)
			continue
		}
		return err
	}
}

// Update replaces an owned recipe's fields, tags and ingredients.
func (s *RecipeService) Update(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.ownedRecipe(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	req.apply(recipe)

	if err := s.store.UpdateRecipe(r.Context(), recipe); err != nil {
		writeError(w, s.logger, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	updated, err := s.store.GetRecipe(r.Context(), recipe.ID, userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Recipe updated", "recipe_id", recipe.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, newRecipeView(updated))
}

// Delete removes an owned recipe.
func (s *RecipeService) Delete(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.ownedRecipe(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.store.DeleteRecipe(r.Context(), recipe.ID); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Recipe deleted", "recipe_id", recipe.ID, "user_id", recipe.AuthorID)
	w.WriteHeader(http.StatusNoContent)
}

// AddFavorite, RemoveFavorite, AddToCart and RemoveFromCart share one flow.

func (s *RecipeService) AddFavorite(w http.ResponseWriter, r *http.Request) {
	s.addToSet(w, r, s.store.AddFavorite, "favorites")
}

func (s *RecipeService) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.removeFromSet(w, r, s.store.RemoveFavorite, "favorites")
}

func (s *RecipeService) AddToCart(w http.ResponseWriter, r *http.Request) {
	s.addToSet(w, r, s.store.AddToCart, "shopping cart")
}

func (s *RecipeService) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.removeFromSet(w, r, s.store.RemoveFromCart, "shopping cart")
}

type setOp func(ctx context.Context, userID, recipeID int64) error

func (s *RecipeService) addToSet(w http.ResponseWriter, r *http.Request, add setOp, set string) {
	recipe, err := s.pathRecipe(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := add(r.Context(), userID, recipe.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeError(w, s.logger, badRequest("recipe is already in %s", set))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Recipe added", "set", set, "recipe_id", recipe.ID, "user_id", userID)
	writeJSON(w, http.StatusCreated, newRecipeShortView(recipe.Summary()))
}

func (s *RecipeService) removeFromSet(w http.ResponseWriter, r *http.Request, remove setOp, set string) {
	recipe, err := s.pathRecipe(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := remove(r.Context(), userID, recipe.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, s.logger, badRequest("recipe is not in %s", set))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Recipe removed", "set", set, "recipe_id", recipe.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated shopping list as a text attachment.
func (s *RecipeService) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	report, err := s.shopping.Build(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Shopping list built", "user_id", userID, "lines", len(report.Lines))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Body); err != nil {
		s.logger.Error("Failed to write shopping list", "user_id", userID, "error", err)
	}
}

type shortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// GetLink returns the recipe's short link.
func (s *RecipeService) GetLink(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.pathRecipe(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	link := baseURL(r, s.publicURL) + "/s/" + recipe.ShortCode + "/"
	writeJSON(w, http.StatusOK, shortLinkResponse{ShortLink: link})
}

// ResolveShortLink redirects a short code to the recipe page.
func (s *RecipeService) ResolveShortLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	recipe, err := s.store.GetRecipeByShortCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Unknown short code", "short_code", code)
		}
		writeError(w, s.logger, err)
		return
	}

	target := fmt.Sprintf("%s/recipes/%d", baseURL(r, s.publicURL), recipe.ID)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *RecipeService) pathRecipe(r *http.Request) (*models.Recipe, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return s.store.GetRecipe(r.Context(), id, middleware.GetUserID(r.Context()))
}

func (s *RecipeService) ownedRecipe(r *http.Request) (*models.Recipe, error) {
	recipe, err := s.pathRecipe(r)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != middleware.GetUserID(r.Context()) {
		return nil, forbidden("only the author can modify this recipe")
	}
	return recipe, nil
}
