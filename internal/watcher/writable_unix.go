//go:build unix

package watcher

import "golang.org/x/sys/unix"

// dirWritable reports whether the current process may create entries in dir.
func dirWritable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}
