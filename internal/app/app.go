// Package app assembles the pipeline from configuration for the front ends.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/export"
	"github.com/joseph-ayodele/dist1-extractor/internal/extract"
	"github.com/joseph-ayodele/dist1-extractor/internal/measure"
	"github.com/joseph-ayodele/dist1-extractor/internal/ocr"
	"github.com/joseph-ayodele/dist1-extractor/internal/ocr/tess"
	"github.com/joseph-ayodele/dist1-extractor/internal/pipeline"
	"github.com/joseph-ayodele/dist1-extractor/internal/repository"
)

// App is a ready pipeline plus the resources it owns.
type App struct {
	Processor *pipeline.Processor
	History   repository.RunRepository // nil when no history DSN is configured
	DB        *repository.DB

	closers []func()
	logger  *slog.Logger
}

// NewLogger returns the JSON stdout logger both binaries use.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewRecognizer builds the configured OCR engine. The returned func releases it.
func NewRecognizer(cfg common.OCRConfig, logger *slog.Logger) (ocr.Recognizer, func(), error) {
	switch cfg.Engine {
	case common.EngineCLI:
		r := ocr.NewCLIRecognizer(ocr.CLIConfig{
			Tesseract:   cfg.Tesseract,
			Lang:        cfg.Lang,
			TessdataDir: cfg.TessdataDir,
			PSM:         cfg.PSM,
		}, logger)
		return r, func() {}, nil
	case common.EngineLib, "":
		c, err := tess.New(tess.Config{Lang: cfg.Lang, TessdataDir: cfg.TessdataDir, PSM: cfg.PSM}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init tesseract: %w", err)
		}
		return c, func() {
			if err := c.Close(); err != nil {
				logger.Warn("close tesseract client", "error", err)
			}
		}, nil
	default:
		return nil, nil, common.NewAppError("CONFIG_ERROR", "unknown OCR engine "+cfg.Engine, common.ErrInvalidInput)
	}
}

// Build validates cfg, opens the history store when configured, and wires
// recognizer, extractor, aggregator, report writer and processor.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{logger: logger}

	rec, closeRec, err := NewRecognizer(cfg.OCR, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRec)

	var opts []pipeline.Option
	if cfg.History.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:         cfg.History.DSN,
			MaxConns:    4,
			MinConns:    1,
			DialTimeout: cfg.History.DialTimeout,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		a.History = repository.NewRunRepository(db, logger)
		opts = append(opts, pipeline.WithHistory(a.History))
	}

	extractor := extract.NewExtractor(rec, logger)
	a.Processor = pipeline.NewProcessor(
		measure.NewAggregator(extractor, logger),
		export.NewWriter(logger),
		logger,
		opts...,
	)
	logger.Info("pipeline ready", "engine", cfg.OCR.Engine, "lang", cfg.OCR.Lang, "history", a.History != nil)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
