package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// Result counts the outcome of one load.
type Result struct {
	Created  int
	Existing int
	Skipped  int
}

// Loader upserts catalogue rows read from CSV.
type Loader struct {
	store  storage.CatalogStore
	logger *slog.Logger
}

type loadFunc func(ctx context.Context, r io.Reader) (Result, error)

func loadFile(ctx context.Context, path string, load loadFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = load(ctx, f)
	return err
}

// LoadIngredients reads name,measurement_unit rows.
func (l *Loader) LoadIngredients(ctx context.Context, r io.Reader) (Result, error) {
	result, err := l.load(ctx, r, func(ctx context.Context, row []string) (bool, error) {
		return l.store.UpsertIngredient(ctx, &models.Ingredient{Name: row[0], MeasurementUnit: row[1]})
	})
	l.logger.Info("Ingredients loaded", "created", result.Created, "existing", result.Existing, "skipped", result.Skipped)
	return result, err
}

// LoadTags reads name,slug rows.
func (l *Loader) LoadTags(ctx context.Context, r io.Reader) (Result, error) {
	result, err := l.load(ctx, r, func(ctx context.Context, row []string) (bool, error) {
		return l.store.UpsertTag(ctx, &models.Tag{Name: row[0], Slug: row[1]})
	})
	l.logger.Info("Tags loaded", "created", result.Created, "existing", result.Existing, "skipped", result.Skipped)
	return result, err
}

// load walks two-column rows, trimming cells. Rows with the wrong column
// count or an empty cell are skipped with a warning.
func (l *Loader) load(ctx context.Context, r io.Reader, upsert func(context.Context, []string) (bool, error)) (Result, error) {
	var result Result

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				l.logger.Warn("Skipping unreadable row", "line", line, "error", err)
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("failed to read csv: %w", err)
		}

		if len(row) != 2 {
			l.logger.Warn("Skipping malformed row", "line", line, "row", row)
			result.Skipped++
			continue
		}
		row[0], row[1] = strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if row[0] == "" || row[1] == "" {
			l.logger.Warn("Skipping row with empty cell", "line", line, "row", row)
			result.Skipped++
			continue
		}

		created, err := upsert(ctx, row)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}
		if created {
			l.logger.Debug("Row created", "line", line, "name", row[0])
			result.Created++
		} else {
			l.logger.Debug("Row already exists", "line", line, "name", row[0])
			result.Existing++
		}
	}
}
