//go:build !unix

package watcher

import (
	"os"
	"path/filepath"
)

// dirWritable probes dir by creating and removing a hidden file.
func dirWritable(dir string) error {
	probe := filepath.Join(dir, ".dropsort_write_test")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
