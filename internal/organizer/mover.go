package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// MoveErrorType represents the type of move error.
type MoveErrorType string

const (
	// NotFound indicates the source vanished before it could be moved.
	NotFound MoveErrorType = "NOT_FOUND"
	// CreateFailed indicates the category folder could not be created.
	CreateFailed MoveErrorType = "CREATE_FAILED"
	// MoveFailed indicates the rename itself failed (cross-device, permissions, ...).
	MoveFailed MoveErrorType = "MOVE_FAILED"
)

// MoveError represents an error that occurred during file movement.
type MoveError struct {
	Type MoveErrorType
	Path string
	Err  error
}

func (e *MoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// IsMoveErrorType reports whether err is a *MoveError of the given type.
func IsMoveErrorType(err error, t MoveErrorType) bool {
	var me *MoveError
	return errors.As(err, &me) && me.Type == t
}

// MoveResult represents the result of a successful file move operation.
type MoveResult struct {
	SourcePath      string
	DestinationPath string
	Category        string
	Size            int64
	Mode            fs.FileMode
	Renamed         bool   // True if a " (N)" suffix was applied
	OriginalName    string // Name before collision renaming (empty if not renamed)
	PermissionErr   error  // Non-nil if the permission bits could not be reapplied
}

// Classifier maps a path to a category name.
type Classifier interface {
	Classify(path string) string
}

// Mover relocates files from the watched directory into category folders beneath it.
// It is safe for concurrent use; no cross-process locking is performed.
type Mover struct {
	root       string
	classifier Classifier
	logger     *slog.Logger

	rename func(oldpath, newpath string) error
	chmod  func(name string, mode fs.FileMode) error
}

// NewMover creates a Mover rooted at root. A nil logger discards output.
func NewMover(root string, classifier Classifier, logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mover{
		root:       root,
		classifier: classifier,
		logger:     logger,
		rename:     os.Rename,
		chmod:      os.Chmod,
	}
}

// Root returns the directory category folders are created under.
func (m *Mover) Root() string {
	return m.root
}

// Move classifies source, ensures its category folder exists, and renames the file
// into it under a collision-free name. The source permission bits are reapplied to
// the destination afterwards; failure to do so is reported in MoveResult.PermissionErr
// and does not undo the move.
func (m *Mover) Move(source string) (*MoveResult, error) {
	info, err := os.Lstat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MoveError{Type: NotFound, Path: source, Err: err}
		}
		return nil, &MoveError{Type: MoveFailed, Path: source, Err: err}
	}
	mode := info.Mode().Perm()

	category := m.classifier.Classify(source)
	folder := filepath.Join(m.root, category)

	if err := ensureFolder(folder); err != nil {
		return nil, &MoveError{Type: CreateFailed, Path: folder, Err: err}
	}

	name := filepath.Base(source)
	desired := filepath.Join(folder, name)
	dest := ResolveCollision(desired)

	if err := m.rename(source, dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !FileExists(source) {
			return nil, &MoveError{Type: NotFound, Path: source, Err: err}
		}
		return nil, &MoveError{Type: MoveFailed, Path: source, Err: err}
	}

	result := &MoveResult{
		SourcePath:      source,
		DestinationPath: dest,
		Category:        category,
		Size:            info.Size(),
		Mode:            mode,
	}
	if dest != desired {
		result.Renamed = true
		result.OriginalName = name
	}

	// Symlinks are moved as links; chmod would follow them to the target.
	if info.Mode()&fs.ModeSymlink == 0 {
		if err := m.chmod(dest, mode); err != nil {
			result.PermissionErr = err
			m.logger.Warn("permission restore failed",
				slog.String("path", dest),
				slog.String("mode", mode.String()),
				slog.Any("error", err))
		}
	}

	m.logger.Debug("file moved",
		slog.String("source", source),
		slog.String("destination", dest),
		slog.String("category", category),
		slog.String("size", humanize.Bytes(uint64(info.Size()))))

	return result, nil
}

// ensureFolder creates dir with mode 0755 if it is absent. An existing directory
// is not an error; an existing non-directory is.
func ensureFolder(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dir)
	}
	return nil
}
