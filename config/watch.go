package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// reloadOps are the events on the config file that can change its contents.
// Atomic saves (write temp file, rename over path) show up as Create or Rename
// on the target name.
const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch calls onChange with the freshly loaded Config whenever the file at
// path changes, until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so the watch
// survives editors that replace the file on save. A reload that fails (missing
// file mid-save, invalid YAML) is logged and onChange is not called; the
// caller keeps whatever config it already has.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	target := filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}
	slog.Info("config: watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&reloadOps == 0 {
				// Remove: wait for the Create that finishes the save.
				continue
			}

			cfg, err := Load(target)
			if err != nil {
				slog.Warn("config: reload skipped", "path", target, "op", ev.Op.String(), "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", target, "level", cfg.Log.Level)
			onChange(cfg)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
