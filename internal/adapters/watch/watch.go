// Package watch reports newly created artifact files in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/claimdrop/internal/ports"
)

// Handler processes one new file. Errors are logged and do not stop the watch.
type Handler func(ctx context.Context, path string) error

// Config holds watcher options.
type Config struct {
	// Dir is the directory to watch.
	Dir string

	// Suffix selects file names to report, e.g. "_signed.csv".
	Suffix string

	// DebounceDelay is how long a file must be quiet before it is reported.
	// Default: 200 milliseconds
	DebounceDelay time.Duration
}

// Watcher delivers each matching file to the handler at most once, one at a
// time, in the order the files settled.
type Watcher struct {
	cfg     Config
	logger  ports.Logger
	fsw     *fsnotify.Watcher
	ready   chan string
	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]bool
}

// New starts watching cfg.Dir. Files created after New returns are reported
// by Run.
func New(cfg Config, logger ports.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory must be set")
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}

	return &Watcher{
		cfg:     cfg,
		logger:  logger,
		fsw:     fsw,
		ready:   make(chan string, 16),
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]bool),
	}, nil
}

// Run blocks until ctx is cancelled, calling handle for each settled file.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(event) {
				continue
			}
			w.debounce(ctx, event.Name)

		case path := <-w.ready:
			if w.seen[path] {
				continue
			}
			w.seen[path] = true
			w.logger.Info("new artifact", ports.String("path", path))
			if err := handle(ctx, path); err != nil {
				w.logger.Error("artifact handler failed", ports.String("path", path), ports.Err(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", ports.Err(err))
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) matches(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	return strings.HasSuffix(filepath.Base(event.Name), w.cfg.Suffix)
}

func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.DebounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
