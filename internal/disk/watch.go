package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/rogersnm/errand/internal/model"
)

// Change is one record file that was written or removed outside this process.
type Change struct {
	Kind    model.Kind
	ID      string
	Removed bool
}

// Watcher reports record file changes under a backend's base directory.
// Bursts of events are coalesced; a callback sees each record at most once
// per batch, in path order. fsnotify watches the OS paths, so events only
// arrive for a backend on the real filesystem.
type Watcher struct {
	fs       afero.Fs
	baseDir  string
	debounce time.Duration
	log      *slog.Logger
}

// Watcher returns a watcher over b's directories that sees the same
// filesystem b reads and writes. A nil log uses the backend's logger.
func (b *Backend) Watcher(debounce time.Duration, log *slog.Logger) *Watcher {
	if log == nil {
		log = b.log
	}
	return &Watcher{fs: b.fs, baseDir: b.baseDir, debounce: debounce, log: log}
}

// Run blocks until ctx is done, calling fn with each batch of changes.
func (w *Watcher) Run(ctx context.Context, fn func([]Change)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	paths := make([]string, 0, len(dirs))
	for _, d := range dirs {
		p := filepath.Join(w.baseDir, d)
		if err := w.fs.MkdirAll(p, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isRecordFile(filepath.Base(ev.Name)) || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-timer.C:
			if changes := w.collect(pending); len(changes) > 0 {
				fn(changes)
			}
			clear(pending)
		}
	}
}

func (w *Watcher) collect(paths map[string]bool) []Change {
	names := make([]string, 0, len(paths))
	for p := range paths {
		names = append(names, p)
	}
	slices.Sort(names)

	var out []Change
	for _, p := range names {
		kind, ok := kindOfDir(filepath.Base(filepath.Dir(p)))
		if !ok {
			continue
		}
		_, err := w.fs.Stat(p)
		out = append(out, Change{
			Kind:    kind,
			ID:      strings.TrimSuffix(filepath.Base(p), ".md"),
			Removed: errors.Is(err, fs.ErrNotExist),
		})
	}
	return out
}

func kindOfDir(name string) (model.Kind, bool) {
	for k, d := range dirs {
		if d == name {
			return k, true
		}
	}
	return "", false
}
