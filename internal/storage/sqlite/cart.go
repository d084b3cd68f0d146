package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// AddFavorite marks a recipe as favorite for the user.
func (s *SQLiteStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.addUserRecipe(ctx, "favorites", userID, recipeID)
}

// RemoveFavorite unmarks a favorite recipe.
func (s *SQLiteStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.removeUserRecipe(ctx, "favorites", userID, recipeID)
}

// AddToCart puts a recipe into the user's shopping cart.
func (s *SQLiteStore) AddToCart(ctx context.Context, userID, recipeID int64) error {
	return s.addUserRecipe(ctx, "shopping_cart", userID, recipeID)
}

// RemoveFromCart takes a recipe out of the user's shopping cart.
func (s *SQLiteStore) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	return s.removeUserRecipe(ctx, "shopping_cart", userID, recipeID)
}

func (s *SQLiteStore) addUserRecipe(ctx context.Context, table string, userID, recipeID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, recipe_id) VALUES (?, ?)",
		userID, recipeID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("recipe %d in %s: %w", recipeID, table, storage.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("recipe %d: %w", recipeID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) removeUserRecipe(ctx context.Context, table string, userID, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE user_id = ? AND recipe_id = ?",
		userID, recipeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return requireAffected(res, "recipe in "+table)
}

// CartIngredientLines returns every ingredient line of every recipe in the
// user's cart. Grouping is left to the caller.
func (s *SQLiteStore) CartIngredientLines(ctx context.Context, userID int64) ([]models.IngredientLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.name, i.measurement_unit, ri.amount
		FROM shopping_cart c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE c.user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart ingredients: %w", err)
	}
	defer rows.Close()

	var lines []models.IngredientLine
	for rows.Next() {
		var line models.IngredientLine
		if err := rows.Scan(&line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan cart ingredient: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart ingredients: %w", err)
	}

	return lines, nil
}
