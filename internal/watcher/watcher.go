// Package watcher turns filesystem events under the pack root into local
// change notifications.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
	"go.uber.org/zap"

	"packsync/internal/index"
	"packsync/internal/logging"
)

// Notifier receives the relative path of every change that survives
// filtering. Coalescing is the receiver's job.
type Notifier interface {
	NotifyLocalChanged(path string)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(path string)

func (f NotifierFunc) NotifyLocalChanged(path string) { f(path) }

// Watcher watches a directory tree recursively.
type Watcher struct {
	root   string
	ignore *index.IgnoreCache
	target Notifier
	log    *zap.Logger

	watchChan chan notify.EventInfo
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a watcher for root. ignore may be nil, in which case only the
// core ignores apply.
func New(root string, ignore *index.IgnoreCache, target Notifier, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if ignore == nil {
		ignore = index.NewIgnoreCache(abs)
	}
	return &Watcher{
		root:      abs,
		ignore:    ignore,
		target:    target,
		log:       logging.OrNop(log).Named("watcher"),
		watchChan: make(chan notify.EventInfo, 100),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Start installs the recursive watch and begins delivering events.
func (w *Watcher) Start() error {
	var err error
	w.startOnce.Do(func() {
		if err = notify.Watch(filepath.Join(w.root, "..."), w.watchChan, notify.All); err != nil {
			err = fmt.Errorf("failed to setup file watcher: %w", err)
			close(w.stopped)
			return
		}
		go w.processEvents()
		w.log.Info("file watcher started", zap.String("root", w.root))
	})
	return err
}

// Stop removes the watch and waits for the event loop to exit. It may be
// called more than once.
func (w *Watcher) Stop() {
	w.startOnce.Do(func() { close(w.stopped) })
	w.stopOnce.Do(func() {
		notify.Stop(w.watchChan)
		close(w.done)
	})
	select {
	case <-w.stopped:
	case <-time.After(5 * time.Second):
		w.log.Warn("timeout waiting for watcher to stop")
	}
}

func (w *Watcher) processEvents() {
	defer close(w.stopped)
	for {
		select {
		case ev := <-w.watchChan:
			w.handleEvent(ev.Path(), ev.Event())
		case <-w.done:
			return
		}
	}
}

// handleEvent filters one event and forwards it. A change to an ignore file
// invalidates the compiled matchers and is always forwarded, since it can
// change what the scanner sees.
func (w *Watcher) handleEvent(path string, ev notify.Event) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if filepath.Base(path) == index.IgnoreFileName {
		w.ignore.ClearCache()
		w.log.Debug("ignore file changed", zap.String("path", rel))
		w.target.NotifyLocalChanged(rel)
		return
	}

	info, statErr := os.Lstat(path)
	isDir := statErr == nil && info.IsDir()
	if w.ignore.Match(path, isDir) {
		return
	}
	w.log.Debug("local change", zap.String("path", rel), zap.Stringer("event", ev))
	w.target.NotifyLocalChanged(rel)
}
