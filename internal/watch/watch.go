// Package watch keeps a link index current while documents in the vault
// are edited, created or removed.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before refreshing the index.
const DefaultDebounce = 200 * time.Millisecond

// Refresher re-reads a single document by vault-relative path and drops
// every document below a removed folder. *index.Index satisfies it.
type Refresher interface {
	Refresh(p string) error
	RemoveTree(dir string) int
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher forwards changes to markdown files under a vault root to a
// Refresher, in debounced batches.
type Watcher struct {
	vault    *vault.Vault
	target   Refresher
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	pending  map[string]struct{}
	gone     map[string]struct{} // folders removed or renamed away
}

// New creates a watcher for v. Call Run to start delivering changes.
func New(v *vault.Vault, target Refresher, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		vault:    v,
		target:   target,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		fsw:      fsw,
		pending:  make(map[string]struct{}),
		gone:     make(map[string]struct{}),
	}, nil
}

// Run watches the vault until ctx is done. Pending changes are flushed
// before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	root, err := filepath.Abs(w.vault.Root())
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.addTree(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	w.logger.Info("watching vault", "root", root)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.flush()
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.flush()
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timer.C:
			w.flush()
		}
	}
}

// handle records ev and reports whether it queued an index update.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return w.addDir(ev.Name)
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if !vault.IsMarkdown(ev.Name) {
		// A folder that disappears takes its documents with it; fsnotify
		// reports no events for the files inside.
		if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
			return false
		}
		dir, ok := w.visible(ev.Name)
		if !ok {
			return false
		}
		w.gone[dir] = struct{}{}
		return true
	}
	p, ok := w.relevant(ev.Name)
	if !ok {
		return false
	}
	w.pending[p] = struct{}{}
	return true
}

// addDir watches a newly created folder and queues the documents already
// inside it, which is how a folder renamed into the vault shows up.
func (w *Watcher) addDir(dir string) bool {
	if _, ok := w.visible(dir); !ok {
		return false
	}
	if err := w.addTree(dir); err != nil {
		w.logger.Warn("watch: add directory failed", "path", dir, "err", err)
	}
	queued := false
	_ = filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if name != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if p, ok := w.relevant(name); ok {
			w.pending[p] = struct{}{}
			queued = true
		}
		return nil
	})
	return queued
}

// relevant maps an absolute event path to a document path, or reports
// false for anything that is not a visible markdown file in the vault.
func (w *Watcher) relevant(name string) (string, bool) {
	if !vault.IsMarkdown(name) {
		return "", false
	}
	p, ok := w.vault.Rel(name)
	if !ok {
		return "", false
	}
	parts := strings.Split(p, "/")
	for _, dir := range parts[:len(parts)-1] {
		if hidden(dir) {
			return "", false
		}
	}
	return p, true
}

// visible maps an absolute path to a vault path whose every element is
// visible to the vault listing.
func (w *Watcher) visible(name string) (string, bool) {
	p, ok := w.vault.Rel(name)
	if !ok {
		return "", false
	}
	for _, part := range strings.Split(p, "/") {
		if hidden(part) {
			return "", false
		}
	}
	return p, true
}

// flush drops removed folders, then refreshes every pending document in
// path order.
func (w *Watcher) flush() {
	if len(w.gone) > 0 {
		dirs := make([]string, 0, len(w.gone))
		for d := range w.gone {
			dirs = append(dirs, d)
		}
		sort.Strings(dirs)
		clear(w.gone)
		for _, d := range dirs {
			if n := w.target.RemoveTree(d); n > 0 {
				w.logger.Debug("index dropped folder", "dir", d, "documents", n)
			}
		}
	}
	if len(w.pending) == 0 {
		return
	}
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	sort.Strings(batch)
	clear(w.pending)

	for _, p := range batch {
		if err := w.target.Refresh(p); err != nil {
			w.logger.Warn("watch: refresh failed", "path", p, "err", err)
			continue
		}
	}
	w.logger.Debug("index updated", "documents", len(batch))
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// hidden matches the folders the vault skips when listing documents.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != ".templates"
}
