// Package app wires configuration into a ready Processor for the binaries.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-qc/internal/cache"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
	"github.com/joseph-ayodele/invoice-qc/internal/ingest"
	"github.com/joseph-ayodele/invoice-qc/internal/ocr"
	"github.com/joseph-ayodele/invoice-qc/internal/pipeline"
	"github.com/joseph-ayodele/invoice-qc/internal/repository"
	"github.com/joseph-ayodele/invoice-qc/internal/validate"
)

// Options controls the optional parts of the wiring.
type Options struct {
	// NoStore skips the report database; reports are returned but not kept.
	NoStore bool
	// Pdftotext is passed through to the document loader.
	Pdftotext string
}

// App holds the wired components. Call Cleanup when done.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB // nil with NoStore
	Reports   repository.ReportRepository
	Processor *pipeline.Processor

	closers []func()
}

// Build resolves the extraction profile, opens the report store and cache,
// and assembles the pipeline.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}

	profile, err := ResolveProfile(cfg.Extraction)
	if err != nil {
		return nil, err
	}

	var jobs repository.ExtractJobRepository
	if !opts.NoStore {
		db, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Cleanup()
			return nil, err
		}
		a.DB = db
		a.Reports = repository.NewReportRepository(db)
		jobs = repository.NewExtractJobRepository(db)
	}

	c, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		a.Cleanup()
		return nil, err
	}
	if r, ok := c.(*cache.Redis); ok {
		a.closers = append(a.closers, func() {
			if err := r.Close(); err != nil {
				logger.Warn("cache.close.failed", "err", err)
			}
		})
	}

	text := pipeline.NewTextStage(
		ingest.NewScanner(logger),
		ocr.NewExtractor(ocr.Config{Pdftotext: opts.Pdftotext}, logger),
		jobs, logger)
	fields := pipeline.NewFieldStage(extract.NewAssembler(profile, logger), c, logger)
	validator := validate.NewValidator(cfg.Validation.Tolerance, logger)

	a.Processor = pipeline.NewProcessor(logger, text, fields, validator, a.Reports, cfg.Extraction.Workers)
	logger.Info("app.ready",
		"profile", profile.Name(),
		"tolerance", cfg.Validation.Tolerance,
		"workers", cfg.Extraction.Workers,
		"store", a.DB != nil,
	)
	return a, nil
}

// ResolveProfile prefers a profile file over the named built-in.
func ResolveProfile(cfg common.ExtractionConfig) (extract.Profile, error) {
	if cfg.ProfileFile != "" {
		return extract.LoadProfileFile(cfg.ProfileFile)
	}
	return extract.LookupProfile(cfg.Profile)
}

// Cleanup releases resources in reverse order of acquisition.
func (a *App) Cleanup() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
