package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/state"
)

// DefaultDebounce collapses bursts of writes editors produce on save.
const DefaultDebounce = 250 * time.Millisecond

// Watch exports a report and exports it again every time the source changes,
// until interrupted.
func Watch(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	j, err := prepareJob(ctx, cmd)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(j.source); err != nil {
		return fmt.Errorf("unable to access source: %w", err)
	} else if fi.IsDir() {
		return fmt.Errorf("unable to watch %s: not a report file", j.source)
	}
	log := env.Log.Named("watch")
	return watchFile(ctx, j.source, DefaultDebounce, log, func() error {
		if err := j.run(ctx, log); err != nil {
			// keep watching, the next save may fix the report
			log.Error("Export failed", zap.Error(err))
		}
		return nil
	})
}

// watchFile calls fn once and then after every change of path. It returns
// when ctx is done or fn returns an error.
func watchFile(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, fn func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close()

	// editors often replace the file on save, so watch the directory
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(abs), err)
	}
	if err := fn(); err != nil {
		return err
	}
	log.Info("Watching for changes", zap.String("file", abs))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("Source changed", zap.Stringer("op", event.Op))
			timer.Reset(debounce)
		case <-timer.C:
			if err := fn(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}
