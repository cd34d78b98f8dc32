// Package scanner lists the files already sitting in a directory.
package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ScanErrorType represents the type of scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the directory does not exist or is not a directory.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions to read the directory.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
)

// ScanError represents an error that occurred during directory scanning.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return string(e.Type) + ": " + e.Path
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// FileEntry represents a file found during scanning.
type FileEntry struct {
	Name     string // Filename only
	FullPath string // Absolute path
	Size     int64
	ModTime  time.Time
}

// Scan enumerates regular files directly inside directory, sorted by name.
// Subdirectories, symlinks, and other special files are skipped; there is no recursion.
func Scan(directory string) ([]FileEntry, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		absDir = directory
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Type: DirectoryNotFound, Path: absDir, Err: err}
		}
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: absDir, Err: err}
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, &ScanError{
			Type: DirectoryNotFound,
			Path: absDir,
			Err:  errors.New("path is not a directory"),
		}
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: absDir, Err: err}
		}
		return nil, err
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue // Removed since ReadDir
		}
		files = append(files, FileEntry{
			Name:     entry.Name(),
			FullPath: filepath.Join(absDir, entry.Name()),
			Size:     fi.Size(),
			ModTime:  fi.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}
