// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/foodgram/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a uniqueness constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrShortCodeTaken is returned by CreateRecipe when another recipe already
	// holds the short code. Callers should generate a new code and retry.
	ErrShortCodeTaken = errors.New("short code already taken")
	// ErrInvalidReference is returned when a recipe refers to an unknown tag
	// or ingredient.
	ErrInvalidReference = errors.New("unknown tag or ingredient")
)

// UserStore persists accounts and subscriptions.
type UserStore interface {
	// CreateUser inserts the user and sets user.ID.
	// Returns ErrAlreadyExists when the email or username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns the user, with IsSubscribed relative to viewerID.
	GetUserByID(ctx context.Context, id, viewerID int64) (*models.User, error)
	ListUsers(ctx context.Context, viewerID int64, limit, offset int) ([]*models.User, int, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	SetAvatar(ctx context.Context, userID int64, avatar string) error

	// Subscribe records that userID follows authorID.
	// Returns ErrAlreadyExists for a duplicate subscription.
	Subscribe(ctx context.Context, userID, authorID int64) error
	// Unsubscribe returns ErrNotFound when no subscription existed.
	Unsubscribe(ctx context.Context, userID, authorID int64) error
	// ListSubscriptions returns the authors userID follows with up to
	// recipesLimit recipes each (all recipes when recipesLimit <= 0).
	ListSubscriptions(ctx context.Context, userID int64, recipesLimit, limit, offset int) ([]*models.Author, int, error)
	GetAuthor(ctx context.Context, authorID, viewerID int64, recipesLimit int) (*models.Author, error)
}

// CatalogStore persists tags and ingredients.
type CatalogStore interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	// UpsertTag inserts the tag unless its slug exists, reporting whether a
	// row was created.
	UpsertTag(ctx context.Context, tag *models.Tag) (bool, error)

	// ListIngredients returns ingredients whose name starts with namePrefix
	// (case-insensitive); all ingredients when the prefix is empty.
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
	// UpsertIngredient inserts the ingredient unless the (name, unit) pair
	// exists, reporting whether a row was created.
	UpsertIngredient(ctx context.Context, ingredient *models.Ingredient) (bool, error)
}

// RecipeStore persists recipes and the per-user favorite and cart sets.
type RecipeStore interface {
	// CreateRecipe inserts the recipe with its tags and ingredients in one
	// transaction and sets recipe.ID. recipe.ShortCode must already be set.
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	// UpdateRecipe replaces the editable fields, tags and ingredients.
	// The short code is never modified.
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	DeleteRecipe(ctx context.Context, id int64) error
	GetRecipe(ctx context.Context, id, viewerID int64) (*models.Recipe, error)
	GetRecipeByShortCode(ctx context.Context, code string) (*models.Recipe, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, int, error)

	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	AddToCart(ctx context.Context, userID, recipeID int64) error
	RemoveFromCart(ctx context.Context, userID, recipeID int64) error

	// CartIngredientLines returns one row per ingredient line of every recipe
	// in the user's cart, ungrouped.
	CartIngredientLines(ctx context.Context, userID int64) ([]models.IngredientLine, error)
}

// Store is the full persistence interface used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	CatalogStore
	RecipeStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
