package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// recipeColumns selects a recipe plus its viewer flags; the first two query
// arguments must be the viewer ID.
const recipeColumns = `
	r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.short_code, r.created_at,
	EXISTS(SELECT 1 FROM favorites f WHERE f.user_id = ? AND f.recipe_id = r.id),
	EXISTS(SELECT 1 FROM shopping_cart c WHERE c.user_id = ? AND c.recipe_id = r.id)`

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := row.Scan(
		&r.ID,
		&r.AuthorID,
		&r.Name,
		&r.Image,
		&r.Text,
		&r.CookingTime,
		&r.ShortCode,
		&r.CreatedAt,
		&r.IsFavorited,
		&r.IsInShoppingCart,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRecipe persists a new recipe with its tags and ingredients.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if recipe.CreatedAt == 0 {
		recipe.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (author_id, name, image, text, cooking_time, short_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recipe.AuthorID, recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.ShortCode, recipe.CreatedAt,
	)
	if isUniqueViolation(err) && strings.Contains(err.Error(), "recipes.short_code") {
		return fmt.Errorf("recipe short code %q: %w", recipe.ShortCode, storage.ErrShortCodeTaken)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("author %d: %w", recipe.AuthorID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	recipeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read recipe id: %w", err)
	}

	if err := insertRecipeRelations(ctx, tx, recipeID, recipe); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	recipe.ID = recipeID
	return nil
}

// UpdateRecipe replaces the recipe's fields, tags and ingredients.
func (s *SQLiteStore) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE recipes SET name = ?, image = ?, text = ?, cooking_time = ? WHERE id = ?",
		recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if err := requireAffected(res, "recipe"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_tags WHERE recipe_id = ?", recipe.ID); err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", recipe.ID); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	if err := insertRecipeRelations(ctx, tx, recipe.ID, recipe); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertRecipeRelations(ctx context.Context, tx *sql.Tx, recipeID int64, recipe *models.Recipe) error {
	for _, tag := range recipe.Tags {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)",
			recipeID, tag.ID,
		)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("tag %d: %w", tag.ID, storage.ErrInvalidReference)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("tag %d listed twice: %w", tag.ID, storage.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("failed to insert recipe tag: %w", err)
		}
	}

	for _, ing := range recipe.Ingredients {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)",
			recipeID, ing.IngredientID, ing.Amount,
		)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("ingredient %d: %w", ing.IngredientID, storage.ErrInvalidReference)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("ingredient %d listed twice: %w", ing.IngredientID, storage.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
	}

	return nil
}

// DeleteRecipe removes a recipe; favorites, cart entries and lines cascade.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return requireAffected(res, "recipe")
}

// GetRecipe retrieves a recipe with its author, tags and ingredients.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id, viewerID int64) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = ?`
	recipe, err := scanRecipe(s.db.QueryRowContext(ctx, query, viewerID, viewerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recipe %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if err := s.hydrateRecipe(ctx, recipe, viewerID); err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipeByShortCode looks up the recipe a short link points to.
// Only the recipe row is loaded.
func (s *SQLiteStore) GetRecipeByShortCode(ctx context.Context, code string) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.short_code = ?`
	recipe, err := scanRecipe(s.db.QueryRowContext(ctx, query, 0, 0, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("short code %q: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe by short code: %w", err)
	}
	return recipe, nil
}

// ShortCodeExists reports whether any recipe holds the code.
func (s *SQLiteStore) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM recipes WHERE short_code = ?)", code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

// ListRecipes returns a page of recipes, newest first, and the total count.
func (s *SQLiteStore) ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, int, error) {
	if filter.ViewerID == 0 && (filter.OnlyFavorited || filter.OnlyInShoppingCart) {
		return []*models.Recipe{}, 0, nil
	}

	var (
		conditions []string
		args       []any
	)
	if filter.AuthorID != 0 {
		conditions = append(conditions, "r.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		conditions = append(conditions, `r.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE t.slug IN (`+placeholders(len(filter.TagSlugs))+`))`)
		for _, slug := range filter.TagSlugs {
			args = append(args, slug)
		}
	}
	if filter.OnlyFavorited {
		conditions = append(conditions, "r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)")
		args = append(args, filter.ViewerID)
	}
	if filter.OnlyInShoppingCart {
		conditions = append(conditions, "r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = ?)")
		args = append(args, filter.ViewerID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes r"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + recipeColumns + ` FROM recipes r` + where +
		` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	queryArgs := append([]any{filter.ViewerID, filter.ViewerID}, args...)
	queryArgs = append(queryArgs, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := []*models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating recipes: %w", err)
	}

	for _, recipe := range recipes {
		if err := s.hydrateRecipe(ctx, recipe, filter.ViewerID); err != nil {
			return nil, 0, err
		}
	}

	return recipes, total, nil
}

// hydrateRecipe loads the author, tags and ingredient lines.
func (s *SQLiteStore) hydrateRecipe(ctx context.Context, recipe *models.Recipe, viewerID int64) error {
	author, err := s.GetUserByID(ctx, recipe.AuthorID, viewerID)
	if err != nil {
		return fmt.Errorf("failed to get recipe author: %w", err)
	}
	recipe.Author = author

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ?
		ORDER BY t.id`,
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get recipe tags: %w", err)
	}
	recipe.Tags = []models.Tag{}
	for tagRows.Next() {
		var tag models.Tag
		if err := tagRows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			tagRows.Close()
			return fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		recipe.Tags = append(recipe.Tags, tag)
	}
	tagRows.Close()
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe tags: %w", err)
	}

	ingRows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ?
		ORDER BY i.name, i.id`,
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get recipe ingredients: %w", err)
	}
	defer ingRows.Close()

	recipe.Ingredients = []models.RecipeIngredient{}
	for ingRows.Next() {
		var ing models.RecipeIngredient
		if err := ingRows.Scan(&ing.IngredientID, &ing.Name, &ing.MeasurementUnit, &ing.Amount); err != nil {
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		recipe.Ingredients = append(recipe.Ingredients, ing)
	}
	if err := ingRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe ingredients: %w", err)
	}

	return nil
}
