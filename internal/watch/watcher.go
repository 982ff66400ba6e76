// Package watch archives out-of-band edits to the live prompt file.
//
// The learning service archives a prompt version every time it rewrites
// the prompt itself. Edits made by anything else, a human in an editor or
// another tool, would otherwise leave a hole in the version history. The
// watcher closes that hole: it observes the prompt file and archives the
// on-disk content once writes go quiet for a debounce period. Content
// whose hash is already archived is skipped, so observing the service's
// own writes is harmless.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mentat/internal/learning"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce is the quiet period applied when none is configured.
// Editors save in bursts (truncate, write, rename), so a short pause is
// needed before the content on disk is worth archiving.
const DefaultDebounce = 500 * time.Millisecond

// Event records one external prompt edit that was archived.
type Event struct {
	// Path is the watched prompt file.
	Path string

	// Timestamp is when the archive happened.
	Timestamp time.Time
}

// Config holds watcher settings.
type Config struct {
	// Debounce is the quiet period after the last observed write before
	// the prompt is archived. Zero selects DefaultDebounce.
	Debounce time.Duration
}

// Watcher observes the live prompt file and archives external edits as
// prompt versions.
type Watcher struct {
	learning *learning.Service
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	dir      string
	name     string
	debounce time.Duration
	events   chan Event
	stop     chan struct{}
}

// New creates a watcher for the prompt file managed by svc.
func New(svc *learning.Service, cfg Config, logger *zap.Logger) (*Watcher, error) {
	if svc == nil {
		return nil, fmt.Errorf("learning service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	promptPath := svc.Store().PromptPath()
	return &Watcher{
		learning: svc,
		watcher:  fsWatcher,
		logger:   logger,
		dir:      filepath.Dir(promptPath),
		name:     filepath.Base(promptPath),
		debounce: cfg.Debounce,
		events:   make(chan Event, 10),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching for prompt edits.
//
// The watch is placed on the prompt's directory rather than the file
// itself: editors and atomic writers replace the file by rename, which
// would silently detach a per-file watch. Events are filtered back down
// to the prompt file by name. Call Stop to clean up resources.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		// Already stopped
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

// Events returns the channel for receiving archive events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// run processes filesystem events until stopped.
func (w *Watcher) run(ctx context.Context) {
	var quiet <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}
			quiet = time.After(w.debounce)

		case <-quiet:
			quiet = nil
			w.archive()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}

// matches reports whether a filesystem event concerns the prompt file.
// Create covers atomic saves that replace the file by rename.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.name {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// archive records the on-disk prompt as a version if its content is new.
func (w *Watcher) archive() {
	archived, err := w.learning.ArchiveExternalEdit()
	if err != nil {
		w.logger.Warn("archiving external prompt edit", zap.Error(err))
		return
	}
	if !archived {
		return
	}

	event := Event{
		Path:      filepath.Join(w.dir, w.name),
		Timestamp: time.Now(),
	}

	// Send event (non-blocking)
	select {
	case w.events <- event:
	default:
		// Channel full, skip event
	}
}
