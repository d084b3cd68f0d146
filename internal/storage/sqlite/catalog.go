package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// ListTags returns all tags ordered by name.
func (s *SQLiteStore) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug FROM tags ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}

// GetTag retrieves a tag by ID.
func (s *SQLiteStore) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	tag := &models.Tag{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, slug FROM tags WHERE id = ?", id,
	).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return tag, nil
}

// UpsertTag inserts the tag unless a tag with the same slug exists.
// tag.ID is set in both cases.
func (s *SQLiteStore) UpsertTag(ctx context.Context, tag *models.Tag) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (name, slug) VALUES (?, ?) ON CONFLICT (slug) DO NOTHING",
		tag.Name, tag.Slug,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert tag: %w", err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT id FROM tags WHERE slug = ?", tag.Slug).Scan(&tag.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read tag id: %w", err)
	}
	return created > 0, nil
}

// ListIngredients returns ingredients whose name starts with namePrefix.
// SQLite LIKE is case-insensitive for ASCII letters only.
func (s *SQLiteStore) ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	query := "SELECT id, name, measurement_unit FROM ingredients"
	var args []any
	if namePrefix != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(namePrefix)+"%")
	}
	query += " ORDER BY name, measurement_unit"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient retrieves an ingredient by ID.
func (s *SQLiteStore) GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, measurement_unit FROM ingredients WHERE id = ?", id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ingredient %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return ing, nil
}

// UpsertIngredient inserts the ingredient unless the (name, unit) pair exists.
// ingredient.ID is set in both cases.
func (s *SQLiteStore) UpsertIngredient(ctx context.Context, ingredient *models.Ingredient) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?) ON CONFLICT (name, measurement_unit) DO NOTHING",
		ingredient.Name, ingredient.MeasurementUnit,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM ingredients WHERE name = ? AND measurement_unit = ?",
		ingredient.Name, ingredient.MeasurementUnit,
	).Scan(&ingredient.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read ingredient id: %w", err)
	}
	return created > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
