package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/classification"
	"github.com/Veraticus/statement-mapper/internal/cli"
	"github.com/Veraticus/statement-mapper/internal/common"
	"github.com/Veraticus/statement-mapper/internal/config"
	"github.com/Veraticus/statement-mapper/internal/extract"
	"github.com/Veraticus/statement-mapper/internal/ingest"
	"github.com/Veraticus/statement-mapper/internal/mapping"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/pattern"
	"github.com/Veraticus/statement-mapper/internal/service"
	"github.com/Veraticus/statement-mapper/internal/storage"
	"github.com/Veraticus/statement-mapper/internal/training"
)

// initStorage opens the template database and brings its schema up to date.
func initStorage(ctx context.Context, s *config.Settings) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(s.Database.Path)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openTemplateStore is initStorage for commands that can work without
// persistence. When the database is unavailable templates are kept in
// memory and nothing is learned across runs.
func openTemplateStore(ctx context.Context, s *config.Settings) service.Storage {
	store, err := initStorage(ctx, s)
	if err != nil {
		slog.Warn("template database unavailable, templates will not be remembered",
			"database", s.Database.Path,
			"error", err)
		return storage.NewMemoryStore()
	}
	return store
}

// buildTrainer creates a trainer with the configured weights.
func buildTrainer(s *config.Settings, store service.TemplateStore) *training.Trainer {
	return training.NewTrainer(store, s.Weights(), slog.Default())
}

// buildService wires the mapping pipeline from settings.
func buildService(s *config.Settings, store service.TemplateStore) (*ingest.Service, error) {
	providers, err := classification.NewProviderDetector(classification.DefaultProviders())
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	c := catalog.Default()
	thresholds := s.Thresholds()
	logger := slog.Default()

	return ingest.NewService(
		mapping.NewAutoMapper(c, thresholds, logger),
		mapping.NewValidator(c, thresholds, logger),
		pattern.NewDetector(),
		providers,
		buildTrainer(s, store),
		logger,
	), nil
}

// extractFile reads a statement, drawing a progress bar on progressOut
// when it is not nil.
func extractFile(ctx context.Context, s *config.Settings, path string, progressOut io.Writer) (*extract.Extraction, error) {
	extractor, err := extract.ForPath(path,
		extract.WithTextSource(extract.NewPdfToText(s.Extract.PdfToTextPath)),
		extract.WithSheetIndex(s.Extract.SheetIndex),
	)
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("Cannot read %s (supported: %s)", filepath.Base(path), strings.Join(extract.SupportedExtensions(), ", ")),
			err)
	}

	var progress extract.ProgressFunc
	if progressOut != nil {
		bar := cli.NewExtractionProgress(progressOut, filepath.Base(path))
		defer bar.Finish()
		progress = bar.Func()
	}

	extraction, err := extractor.ExtractRows(ctx, path, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	slog.Debug("extracted statement",
		"file", path,
		"source", extraction.Source,
		"headers", len(extraction.Headers),
		"rows", len(extraction.Rows),
		"quality", extraction.Quality)
	return extraction, nil
}

// contextFlag parses the --context flag.
func contextFlag(cmd *cobra.Command) (model.Context, error) {
	name, _ := cmd.Flags().GetString("context")
	statementContext, err := model.ParseContext(name)
	if err != nil {
		names := make([]string, 0, len(model.AllContexts()))
		for _, c := range model.AllContexts() {
			names = append(names, c.String())
		}
		return "", common.NewUserError(
			fmt.Sprintf("Unknown context %q (choose one of: %s)", name, strings.Join(names, ", ")),
			err)
	}
	return statementContext, nil
}

// addContextFlag registers --context on cmd.
func addContextFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("context", "c", model.ContextPensions.String(), "statement context (pensions, savings, debts, investments)")
}
