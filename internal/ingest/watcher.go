package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	InitialScan bool     // if true, walk roots and emit existing files as the first batch
	Debounce    time.Duration
	Logger      *slog.Logger
}

// StartWatcher emits batches of document paths. A batch is flushed once no
// new create/write/rename event has arrived for Debounce.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan []string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("ingest.watch.start.failed", "err", "no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	batchCh := make(chan []string, 16)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.start.failed", "err", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) && !IsHidden(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("ingest.watch.root.failed", "root", r, "err", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("ingest.watch.started", "roots", cfg.Roots, "debounce", cfg.Debounce)

	go func() {
		defer close(batchCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close.failed", "err", err)
			}
		}()

		pending := map[string]struct{}{}
		for _, p := range initial {
			pending[p] = struct{}{}
		}

		var timer *time.Timer
		var fire <-chan time.Time
		flush := func() {
			if len(pending) == 0 {
				return
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)
			select {
			case batchCh <- batch:
			case <-ctx.Done():
			}
		}
		arm := func() {
			if cfg.Debounce <= 0 {
				flush()
				return
			}
			if timer == nil {
				timer = time.NewTimer(cfg.Debounce)
			} else {
				timer.Reset(cfg.Debounce)
			}
			fire = timer.C
		}
		if len(pending) > 0 {
			arm()
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-fire:
				fire = nil
				flush()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op.Has(fsnotify.Create) && !IsHidden(e.Name) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("ingest.watch.add.failed", "path", e.Name, "err", err)
						}
						continue
					}
				}
				if IsHidden(e.Name) || !AllowedExt(filepath.Ext(e.Name)) {
					continue
				}
				// Rename reports the old name; the new name arrives as Create.
				if e.Op.Has(fsnotify.Remove) || e.Op.Has(fsnotify.Rename) {
					delete(pending, e.Name)
					continue
				}
				if e.Op.Has(fsnotify.Create) || e.Op.Has(fsnotify.Write) {
					pending[e.Name] = struct{}{}
					arm()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "err", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return batchCh, errCh, nil
}
