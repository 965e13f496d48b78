package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/dist1-extractor/internal/app"
	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/ingest"
	"github.com/joseph-ayodele/dist1-extractor/internal/pipeline"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailed        = 1 // missing prerequisite or CSV failure
	exitUsage         = 2
	exitWorkbookError = 3 // CSV written, workbook update failed
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := common.LoadConfig()

	var (
		dir      = flag.String("dir", "", "folder containing cup/, plunger/ and c2025.xlsx (required)")
		lang     = flag.String("lang", pipeline.LangEN, "status message language: en | ja")
		watch    = flag.Bool("watch", false, "re-run whenever images in the folder change")
		debounce = flag.Duration("debounce", 2*time.Second, "quiet period before a watch re-run")
		history  = flag.String("history", cfg.History.DSN, "run history DSN: postgres://... or a sqlite file path")
		engine   = flag.String("engine", cfg.OCR.Engine, "OCR engine: lib | cli")
	)
	flag.Parse()

	v := common.NewValidator().
		Field("dir", *dir, common.Required, common.ExistingDir).
		Field("lang", *lang, common.OneOf(pipeline.LangEN, pipeline.LangJA))
	if v.HasErrors() {
		printError("Error: %s\n", v.ErrorMessage())
		flag.Usage()
		return exitUsage
	}
	cfg.History.DSN = *history
	cfg.OCR.Engine = *engine

	logger := app.NewLogger(cfg.Log.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		return exitFailed
	}
	defer a.Close()

	code := runOnce(ctx, a.Processor, *dir, *lang, logger)
	if !*watch {
		return code
	}

	changes, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Folder: *dir, Debounce: *debounce, Logger: logger})
	if err != nil {
		printError("Error: watch %s: %v\n", *dir, err)
		return exitFailed
	}
	logger.Info("watching folder", "folder", *dir, "debounce", debounce.String())
	for {
		select {
		case ch, ok := <-changes:
			if !ok {
				logger.Info("watch stopped")
				return code
			}
			logger.Info("folder changed", "paths", len(ch.Paths))
			// A signal stops watching but never interrupts a started run.
			code = runOnce(context.WithoutCancel(ctx), a.Processor, *dir, *lang, logger)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		case <-ctx.Done():
			logger.Info("watch stopped")
			return code
		}
	}
}

func runOnce(ctx context.Context, proc *pipeline.Processor, dir, lang string, logger *slog.Logger) int {
	if inv, err := ingest.TakeInventory(dir); err == nil {
		logger.Info("folder inventory", "summary", inv.String(), "ignored", inv.Ignored, "ready", inv.Ready())
	}

	ctx = common.WithLang(ctx, lang)
	res, err := proc.Run(ctx, dir, func(p pipeline.Progress) {
		printError("[%3d%%] %s\n", p.Percent, p.Message)
	})
	if err != nil {
		printError("%s: %v\n", pipeline.Text(lang, pipeline.TextError), err)
		return exitFailed
	}

	if res.WorkbookErr != nil {
		printError("%s %v\n", pipeline.Text(lang, pipeline.TextWorkbookFailed), res.WorkbookErr)
	} else {
		fmt.Printf("%s %s\n", pipeline.Text(lang, pipeline.TextWorkbookSaved), res.WorkbookPath)
	}
	fmt.Printf("%s %s\n", pipeline.Text(lang, pipeline.TextCSVSaved), res.CSVPath)

	if res.WorkbookErr != nil {
		return exitWorkbookError
	}
	return exitOK
}
