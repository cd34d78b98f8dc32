// Package watcher turns change notifications for a directory into one callback
// per file once that file has finished being written.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"dropsort/internal/scanner"
)

// State is a phase of the watch loop lifecycle.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("watcher already started")

// StartupError reports that the watched directory could not be used. It is never retried.
type StartupError struct {
	Dir string
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("cannot watch %s: %v", e.Dir, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// WatchConfig contains watcher settings.
type WatchConfig struct {
	Quiescence       time.Duration // How long a file must stay unchanged (default: 1s)
	SweepInterval    time.Duration // Period between stability checks (default: Quiescence/4, min 50ms)
	IgnorePatterns   []string      // Glob patterns to ignore; nil uses DefaultIgnorePatterns
	ReservedNames    []string      // Category folder names that are never organized
	OrganizeExisting bool          // Queue files already present at startup
}

// DefaultWatchConfig returns a WatchConfig with sensible defaults.
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		Quiescence:     DefaultQuiescence,
		IgnorePatterns: DefaultIgnorePatterns(),
	}
}

// WatchSummary contains stats from the watch session.
type WatchSummary struct {
	FilesOrganized int
	FilesFailed    int
	FilesSkipped   int
	FilesAbandoned int
	NotifierErrors int
	Duration       time.Duration
}

// FileHandler processes a file that has stopped changing. A returned error is
// logged and counted; it never stops the watcher.
type FileHandler func(path string) error

// Watcher monitors the direct children of one directory.
type Watcher struct {
	dir       string
	config    *WatchConfig
	notifier  Notifier
	handler   FileHandler
	filter    *FileFilter
	debouncer *Debouncer
	logger    *slog.Logger
	now       func() time.Time

	state atomic.Int32

	mu             sync.Mutex
	filesOrganized int
	filesFailed    int
	filesSkipped   int
	notifierErrors int
}

// New creates a Watcher for dir. A nil config uses defaults, a nil notifier uses
// fsnotify, and a nil logger discards output.
func New(dir string, config *WatchConfig, notifier Notifier, handler FileHandler, logger *slog.Logger) *Watcher {
	if config == nil {
		config = DefaultWatchConfig()
	}
	if notifier == nil {
		notifier = FSNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{
		dir:      dir,
		config:   config,
		notifier: notifier,
		handler:  handler,
		filter:   NewFileFilter(config.IgnorePatterns, config.ReservedNames),
		logger:   logger,
		now:      time.Now,
	}
	w.debouncer = NewDebouncer(config.Quiescence, w.onReady)
	return w
}

// State returns the current lifecycle phase.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

func (w *Watcher) setState(s State) {
	w.state.Store(int32(s))
	w.logger.Debug("watcher state", slog.String("state", s.String()))
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run validates the directory, subscribes to notifications, and processes them
// until ctx is cancelled or the notification source closes. Files still pending
// at shutdown are abandoned, not moved. A *StartupError is returned if the
// directory is missing, not a directory, not writable, or cannot be subscribed to.
func (w *Watcher) Run(ctx context.Context) (*WatchSummary, error) {
	if !w.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return nil, ErrAlreadyStarted
	}
	start := time.Now()

	dir, err := validateDir(w.dir)
	if err != nil {
		w.setState(StateStopped)
		return nil, &StartupError{Dir: w.dir, Err: err}
	}
	w.dir = dir

	sub, err := w.notifier.Subscribe(dir)
	if err != nil {
		w.setState(StateStopped)
		return nil, &StartupError{Dir: dir, Err: fmt.Errorf("subscribe: %w", err)}
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		w.debouncer.Run(sweepCtx, w.config.SweepInterval)
	}()

	if w.config.OrganizeExisting {
		w.seedExisting()
	}

	w.setState(StateRunning)
	w.logger.Info("watching directory",
		slog.String("dir", dir),
		slog.Duration("quiescence", w.debouncer.Quiescence()))

	w.processEvents(ctx, sub)

	w.setState(StateStopping)
	abandoned := w.debouncer.Abandon()
	stopSweep()
	<-sweepDone
	w.debouncer.Wait()
	if err := sub.Close(); err != nil {
		w.logger.Warn("closing notification source", slog.Any("error", err))
	}
	if abandoned > 0 {
		w.logger.Info("abandoned pending files", slog.Int("count", abandoned))
	}
	w.setState(StateStopped)

	w.mu.Lock()
	defer w.mu.Unlock()
	return &WatchSummary{
		FilesOrganized: w.filesOrganized,
		FilesFailed:    w.filesFailed,
		FilesSkipped:   w.filesSkipped,
		FilesAbandoned: abandoned,
		NotifierErrors: w.notifierErrors,
		Duration:       time.Since(start),
	}, nil
}

// processEvents feeds notifications to the debouncer until shutdown.
func (w *Watcher) processEvents(ctx context.Context, sub Subscription) {
	events := sub.Events()
	errs := sub.Errors()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				w.logger.Warn("notification source closed", slog.String("dir", w.dir))
				return
			}
			w.handleNotification(n)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// Transient; keep watching
			w.mu.Lock()
			w.notifierErrors++
			w.mu.Unlock()
			w.logger.Warn("notification error", slog.Any("error", err))
		}
	}
}

// handleNotification routes one raw notification.
func (w *Watcher) handleNotification(n Notification) {
	path := filepath.Clean(n.Path)
	if filepath.Dir(path) != w.dir {
		return
	}

	if n.Op.Has(OpRemove) || n.Op.Has(OpRename) {
		w.debouncer.Forget(path)
		return
	}

	// Category folders appear whenever a first file of a kind is moved.
	if w.filter.IsReserved(filepath.Base(path)) {
		return
	}
	if w.filter.ShouldIgnore(path) {
		if n.Op.Has(OpCreate) {
			w.mu.Lock()
			w.filesSkipped++
			w.mu.Unlock()
			w.logger.Debug("ignoring file", slog.String("path", path))
		}
		return
	}

	info, err := os.Lstat(path)
	if err != nil {
		w.debouncer.Forget(path)
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	w.debouncer.Observe(path, info.Size(), info.ModTime(), w.now())
}

// seedExisting queues regular files already present in the directory.
func (w *Watcher) seedExisting() {
	entries, err := scanner.Scan(w.dir)
	if err != nil {
		w.logger.Warn("scanning existing files", slog.Any("error", err))
		return
	}
	now := w.now()
	for _, entry := range entries {
		if w.filter.ShouldIgnore(entry.FullPath) {
			continue
		}
		w.debouncer.Observe(entry.FullPath, entry.Size, entry.ModTime, now)
	}
	w.logger.Debug("queued existing files", slog.Int("count", len(entries)))
}

// onReady is the debouncer callback for a stable file.
func (w *Watcher) onReady(path string) {
	if w.handler == nil {
		w.mu.Lock()
		w.filesOrganized++
		w.mu.Unlock()
		return
	}

	err := w.handler(path)

	w.mu.Lock()
	if err != nil {
		w.filesFailed++
	} else {
		w.filesOrganized++
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("organize failed", slog.String("path", path), slog.Any("error", err))
	}
}

// validateDir resolves dir to an absolute path and checks that it is a writable directory.
func validateDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	if err := dirWritable(abs); err != nil {
		return "", fmt.Errorf("%s is not writable: %w", abs, err)
	}
	return abs, nil
}
