// Command loaddata seeds the ingredient and tag catalogue from CSV files.
//
// The database path comes from the same config file and FOODGRAM_* variables
// as the server; -db overrides it.
//
// Usage:
//
//	loaddata -ingredients data/ingredients.csv -tags data/tags.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmynk/foodgram/internal/config"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
	"github.com/mmynk/foodgram/pkg/logging"
)

var errNothingToLoad = errors.New("nothing to load: pass -ingredients and/or -tags")

type options struct {
	dbPath          string
	ingredientsPath string
	tagsPath        string
}

func main() {
	var opts options
	flag.StringVar(&opts.dbPath, "db", "", "SQLite database path (default from config)")
	flag.StringVar(&opts.ingredientsPath, "ingredients", "", "CSV file with name,measurement_unit rows")
	flag.StringVar(&opts.tagsPath, "tags", "", "CSV file with name,slug rows")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.Setup(*logLevel, "text")

	if err := run(context.Background(), opts, logger); err != nil {
		if errors.Is(err, errNothingToLoad) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		logger.Error("Load failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.ingredientsPath == "" && opts.tagsPath == "" {
		return errNothingToLoad
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		db, err := config.LoadDatabase()
		if err != nil {
			return err
		}
		dbPath = db.Path
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", dbPath)

	loader := &Loader{store: store, logger: logger}

	if opts.ingredientsPath != "" {
		if err := loadFile(ctx, opts.ingredientsPath, loader.LoadIngredients); err != nil {
			return fmt.Errorf("failed to load ingredients from %s: %w", opts.ingredientsPath, err)
		}
	}
	if opts.tagsPath != "" {
		if err := loadFile(ctx, opts.tagsPath, loader.LoadTags); err != nil {
			return fmt.Errorf("failed to load tags from %s: %w", opts.tagsPath, err)
		}
	}
	return nil
}
