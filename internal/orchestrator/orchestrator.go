// Package orchestrator wires configuration, classification, moving, watching and
// the audit journal into one dropsort session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"dropsort/internal/audit"
	"dropsort/internal/classifier"
	"dropsort/internal/config"
	"dropsort/internal/logging"
	"dropsort/internal/organizer"
	"dropsort/internal/watcher"
)

// LockFileName is created in the watched directory while a session runs.
// It is hidden, so the watcher never organizes it.
const LockFileName = ".dropsort.lock"

// ErrAlreadyRunning is wrapped in the StartupError returned when another
// process holds the lock on the watched directory.
var ErrAlreadyRunning = errors.New("another dropsort instance is watching this directory")

// Options carries command-line overrides and injectable collaborators.
type Options struct {
	ConfigPath       string // Empty: the default config path, or built-in defaults
	WatchDir         string // Overrides watch_directory when set
	LogLevel         string // Overrides log_level when set
	OrganizeExisting bool   // Forces organize_existing on when set
	Version          string

	LogWriter io.Writer        // Default: os.Stderr
	Logger    *slog.Logger     // Default: built from log_level and log_format
	Notifier  watcher.Notifier // Default: fsnotify
}

// Orchestrator holds the resolved configuration for one session.
type Orchestrator struct {
	config   *config.Configuration
	extMap   *classifier.ExtensionMap
	logger   *slog.Logger
	notifier watcher.Notifier
	version  string
}

// New loads the configuration, applies overrides, and validates the result.
// Validation warnings are logged; any validation error is returned.
func New(opts Options) (*Orchestrator, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig is New for an already loaded configuration.
func NewWithConfig(cfg *config.Configuration, opts Options) (*Orchestrator, error) {
	if opts.WatchDir != "" {
		cfg.WatchDirectory = opts.WatchDir
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.OrganizeExisting {
		cfg.OrganizeExisting = true
	}
	cfg.ApplyDefaults()

	abs, err := filepath.Abs(cfg.WatchDirectory)
	if err != nil {
		return nil, fmt.Errorf("resolve watch directory: %w", err)
	}
	cfg.WatchDirectory = abs

	logger := opts.Logger
	if logger == nil {
		logger, err = buildLogger(cfg, opts.LogWriter)
		if err != nil {
			return nil, &config.ConfigError{Type: config.ValidationError, Message: err.Error()}
		}
	}

	result := config.ValidateConfig(cfg)
	for _, w := range result.Warnings {
		logger.Warn("configuration warning", slog.String("field", w.Field), slog.String("message", w.Message))
	}
	if !result.Valid {
		for _, e := range result.Errors {
			logger.Error("configuration error", slog.String("field", e.Field), slog.String("message", e.Message))
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		config:   cfg,
		extMap:   cfg.ExtensionMap(),
		logger:   logger,
		notifier: opts.Notifier,
		version:  opts.Version,
	}, nil
}

func buildLogger(cfg *config.Configuration, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{Level: level, Format: format, Writer: w}), nil
}

// Config returns the resolved configuration.
func (o *Orchestrator) Config() *config.Configuration {
	return o.config
}

// Logger returns the session logger.
func (o *Orchestrator) Logger() *slog.Logger {
	return o.logger
}

// Run watches the configured directory until ctx is cancelled. It holds an
// exclusive lock on the directory for the whole session and, if enabled, records
// every move in the audit journal.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	dir := o.config.WatchDirectory

	lockPath := filepath.Join(dir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, &watcher.StartupError{Dir: dir, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	if !ok {
		return nil, &watcher.StartupError{Dir: dir, Err: ErrAlreadyRunning}
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("failed to release lock", slog.String("lock", lockPath), slog.Any("error", err))
		}
	}()

	var journal *audit.Journal
	if o.config.Audit.IsEnabled() {
		journal, err = audit.Open(o.config.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("open audit journal: %w", err)
		}
		defer journal.Close()

		session, err := journal.StartSession(o.version, dir)
		if err != nil {
			return nil, fmt.Errorf("start audit session: %w", err)
		}
		o.logger.Debug("audit session started",
			slog.String("session", string(session)),
			slog.String("journal", journal.Path()))
	}

	summary := newSummary()
	mover := organizer.NewMover(dir, o.extMap, logging.WithComponent(o.logger, "mover"))

	handler := func(path string) error {
		result, err := mover.Move(path)
		if err != nil {
			if journal != nil {
				if jerr := journal.RecordError(path, err); jerr != nil {
					o.logger.Error("audit write failed", slog.Any("error", jerr))
				}
			}
			return err
		}

		rel, relErr := filepath.Rel(dir, result.DestinationPath)
		if relErr != nil {
			rel = result.DestinationPath
		}
		o.logger.Info("file organized",
			slog.String("file", filepath.Base(result.SourcePath)),
			slog.String("destination", rel),
			slog.String("category", result.Category),
			slog.Bool("renamed", result.Renamed))

		summary.recordMove(result)
		if journal != nil {
			if jerr := journal.RecordMove(result); jerr != nil {
				o.logger.Error("audit write failed", slog.Any("error", jerr))
			}
		}
		return nil
	}

	wcfg := &watcher.WatchConfig{
		Quiescence:       o.config.Quiescence(),
		IgnorePatterns:   o.config.IgnorePatterns,
		ReservedNames:    o.extMap.Names(),
		OrganizeExisting: o.config.OrganizeExisting,
	}
	w := watcher.New(dir, wcfg, o.notifier, handler, logging.WithComponent(o.logger, "watcher"))

	ws, err := w.Run(ctx)
	if err != nil {
		if journal != nil {
			journal.EndSession(audit.SessionSummary{})
		}
		return nil, err
	}
	summary.applyWatch(ws)

	if journal != nil {
		err := journal.EndSession(audit.SessionSummary{
			Organized: ws.FilesOrganized,
			Failed:    ws.FilesFailed,
			Skipped:   ws.FilesSkipped,
			Abandoned: ws.FilesAbandoned,
			Duration:  ws.Duration,
		})
		if err != nil {
			o.logger.Error("audit write failed", slog.Any("error", err))
		}
	}

	o.logger.Info("stopped", slog.String("summary", summary.PrintSummary()))
	return summary, nil
}

// lockHeld reports whether another process holds the session lock on dir.
func lockHeld(dir string) bool {
	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	ok, err := lock.TryRLock()
	if err != nil {
		return false
	}
	if ok {
		lock.Unlock()
	}
	return !ok
}
