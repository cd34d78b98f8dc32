package watcher

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op describes what happened to a path.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Has reports whether o contains all bits of h.
func (o Op) Has(h Op) bool {
	return o&h == h
}

func (o Op) String() string {
	switch {
	case o.Has(OpCreate):
		return "CREATE"
	case o.Has(OpWrite):
		return "WRITE"
	case o.Has(OpRemove):
		return "REMOVE"
	case o.Has(OpRename):
		return "RENAME"
	case o.Has(OpChmod):
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Notification is a raw change event for one path.
type Notification struct {
	Path string
	Op   Op
}

// Notifier subscribes to change notifications for the direct children of a directory.
type Notifier interface {
	Subscribe(dir string) (Subscription, error)
}

// Subscription delivers notifications until Close is called. Both channels are
// closed once the subscription ends.
type Subscription interface {
	Events() <-chan Notification
	Errors() <-chan error
	Close() error
}

// FSNotifier is the Notifier backed by fsnotify. Watches are non-recursive.
type FSNotifier struct{}

// Subscribe starts an fsnotify watch on dir.
func (FSNotifier) Subscribe(dir string) (Subscription, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	s := &fsSubscription{
		fw:     fw,
		events: make(chan Notification, 64),
		errors: make(chan error, 8),
		done:   make(chan struct{}),
	}
	go s.forward()
	return s, nil
}

type fsSubscription struct {
	fw        *fsnotify.Watcher
	events    chan Notification
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *fsSubscription) Events() <-chan Notification { return s.events }

func (s *fsSubscription) Errors() <-chan error { return s.errors }

func (s *fsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.fw.Close()
	})
	return err
}

// forward translates fsnotify events until the underlying watcher closes.
func (s *fsSubscription) forward() {
	defer close(s.events)
	defer close(s.errors)

	for {
		select {
		case ev, ok := <-s.fw.Events:
			if !ok {
				return
			}
			n := Notification{Path: ev.Name, Op: translateOp(ev.Op)}
			select {
			case s.events <- n:
			case <-s.done:
				return
			}
		case err, ok := <-s.fw.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func translateOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	return out
}
