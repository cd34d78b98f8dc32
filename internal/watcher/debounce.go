package watcher

import (
	"context"
	"os"
	"sync"
	"time"
)

// DefaultQuiescence is how long a file must stay unchanged before it is dispatched.
const DefaultQuiescence = time.Second

// minSweepInterval bounds how often pending files are re-examined.
const minSweepInterval = 50 * time.Millisecond

// PendingFile is a path seen via a change event that has not yet been confirmed stable.
type PendingFile struct {
	Path       string
	Size       int64
	ModTime    time.Time
	LastChange time.Time
}

// Debouncer holds files that are still being written and hands each one to the
// ready callback once its size and modification time have stayed unchanged for
// the quiescence window. Quiescence is a heuristic; a writer that pauses longer
// than the window will be seen as finished.
type Debouncer struct {
	quiescence time.Duration
	ready      func(path string)
	stat       func(path string) (os.FileInfo, error)

	mu       sync.Mutex
	pending  map[string]*PendingFile
	inflight map[string]struct{}
	closed   bool

	// dispatching tracks ready callbacks still running.
	dispatching sync.WaitGroup
}

// NewDebouncer creates a Debouncer. The ready callback is invoked at most once per
// promotion, outside the Debouncer's lock.
func NewDebouncer(quiescence time.Duration, ready func(path string)) *Debouncer {
	if quiescence < 0 {
		quiescence = 0
	}
	return &Debouncer{
		quiescence: quiescence,
		ready:      ready,
		stat:       os.Lstat,
		pending:    make(map[string]*PendingFile),
		inflight:   make(map[string]struct{}),
	}
}

// SweepInterval returns the default period between sweeps: a quarter of the
// quiescence window, but never less than 50ms.
func (d *Debouncer) SweepInterval() time.Duration {
	interval := d.quiescence / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	return interval
}

// Observe records activity on path. A new path becomes pending; an existing one
// has its size and modification time updated and its quiescence clock restarted.
func (d *Debouncer) Observe(path string, size int64, modTime time.Time, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	p, exists := d.pending[path]
	if !exists {
		p = &PendingFile{Path: path}
		d.pending[path] = p
	}
	p.Size = size
	p.ModTime = modTime
	p.LastChange = at
}

// Forget drops path from the pending set without dispatching it.
func (d *Debouncer) Forget(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, path)
}

// Sweep re-examines every pending file as of now. Vanished entries are dropped,
// changed entries restart their clock, and entries quiet for the full window are
// removed from the pending set and dispatched. It returns the dispatched paths.
func (d *Debouncer) Sweep(now time.Time) []string {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}

	var promoted []string
	for path, p := range d.pending {
		info, err := d.stat(path)
		if err != nil || info.IsDir() {
			// Deleted or replaced while pending
			delete(d.pending, path)
			continue
		}

		if info.Size() != p.Size || !info.ModTime().Equal(p.ModTime) {
			p.Size = info.Size()
			p.ModTime = info.ModTime()
			p.LastChange = now
			continue
		}

		if now.Sub(p.LastChange) < d.quiescence {
			continue
		}
		if _, busy := d.inflight[path]; busy {
			continue
		}

		delete(d.pending, path)
		d.inflight[path] = struct{}{}
		promoted = append(promoted, path)
	}
	d.dispatching.Add(len(promoted))
	d.mu.Unlock()

	for _, path := range promoted {
		d.dispatch(path)
	}
	return promoted
}

func (d *Debouncer) dispatch(path string) {
	defer func() {
		d.mu.Lock()
		delete(d.inflight, path)
		d.mu.Unlock()
		d.dispatching.Done()
	}()

	if d.ready != nil {
		d.ready(path)
	}
}

// Run sweeps on a ticker until ctx is cancelled. A non-positive interval uses
// SweepInterval.
func (d *Debouncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = d.SweepInterval()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.Sweep(now)
		}
	}
}

// Abandon discards every pending file without dispatching it, stops accepting
// observations, and returns how many files were discarded. Dispatches already
// underway are allowed to finish; use Wait to block on them.
func (d *Debouncer) Abandon() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.pending)
	d.pending = make(map[string]*PendingFile)
	d.closed = true
	return n
}

// Wait blocks until in-progress dispatches have returned.
func (d *Debouncer) Wait() {
	d.dispatching.Wait()
}

// PendingCount returns the number of files currently pending.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending returns true if path is currently pending.
func (d *Debouncer) IsPending(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.pending[path]
	return exists
}

// Pending returns a snapshot of the pending entry for path.
func (d *Debouncer) Pending(path string) (PendingFile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[path]
	if !ok {
		return PendingFile{}, false
	}
	return *p, true
}

// Quiescence returns the configured quiescence window.
func (d *Debouncer) Quiescence() time.Duration {
	return d.quiescence
}
