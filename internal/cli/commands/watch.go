package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

func newSchemaWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-validate and re-diff a draft schema every time it is saved",
		Long: `Watch a draft schema document and print its migration preview against the
active schema on every save. Press Ctrl+C to stop.`,
		Example: `  boardkit schema watch draft.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			check := func() {
				r.Header(1, fmt.Sprintf("%s @ %s", args[0], time.Now().Format("15:04:05")))
				if err := diffDraft(r, cmdCtx.Catalog, args[0]); err != nil {
					r.Error(err.Error())
				}
				r.Println("")
			}

			check()
			return watchFile(ctx, args[0], watchDebounce, cmdCtx.Logger, check)
		},
	}
}

// watchFile calls onChange after path is written or re-created, once per
// burst of events. It watches the parent directory so editors that save by
// renaming a temp file are still seen. Returns when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	// Debounce timer, armed by the first matching event.
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			logger.Debug("schema draft changed", slog.String("file", path))
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}
