package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/dist1-extractor/constants"
)

type WatchConfig struct {
	Folder   string        // run folder; its cup/ and plunger/ subfolders are watched too
	Debounce time.Duration // coalesce rapid create/write/rename bursts
	Logger   *slog.Logger
}

// Change is one debounced batch of relevant file events.
type Change struct {
	Paths []string
	At    time.Time
}

// StartWatcher emits a Change whenever images under the run folder are
// created, written, renamed or removed. The report files the pipeline writes
// are ignored so a run never retriggers itself. Both channels close when ctx
// is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan Change, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Folder == "" {
		logger.Error("watcher start failed: no folder provided")
		return nil, nil, errors.New("no folder provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Folder); err != nil {
		logger.Error("failed to watch folder", "folder", cfg.Folder, "error", err)
		_ = w.Close()
		return nil, nil, err
	}
	for _, sub := range []string{constants.CupDir, constants.PlungerDir} {
		tryAddDir(w, filepath.Join(cfg.Folder, sub), logger)
	}

	evCh := make(chan Change, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		timer := time.NewTimer(time.Hour)
		timer.Stop()
		pending := map[string]struct{}{}

		flush := func() {
			if len(pending) == 0 {
				return
			}
			ch := Change{At: time.Now()}
			for p := range pending {
				ch.Paths = append(ch.Paths, p)
			}
			clear(pending)
			select {
			case evCh <- ch:
			default:
				logger.Debug("change dropped, previous one not consumed yet", "paths", len(ch.Paths))
			}
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create && isSubfolder(cfg.Folder, e.Name) {
					tryAddDir(w, e.Name, logger)
				}
				if !Relevant(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					timer.Reset(cfg.Debounce)
				} else {
					flush()
				}
			case <-timer.C:
				flush()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// Relevant reports whether a change to path can alter the pipeline's input.
// Only visible image files count; the workbook and CSV are outputs.
func Relevant(path string) bool {
	return AllowedExt(filepath.Ext(path)) && !IsHidden(path)
}

func isSubfolder(folder, path string) bool {
	base := filepath.Base(path)
	return filepath.Dir(path) == filepath.Clean(folder) &&
		(base == constants.CupDir || base == constants.PlungerDir)
}

func tryAddDir(w *fsnotify.Watcher, path string, logger *slog.Logger) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}
	if err := w.Add(path); err != nil {
		logger.Warn("failed to add directory to watcher", "path", path, "error", err)
	}
}
