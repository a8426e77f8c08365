package watcher

import "github.com/fsnotify/fsnotify"

// EventKind represents the type of file system event
type EventKind int

const (
	// Created is emitted when a file appears in a watched directory
	Created EventKind = iota
	// Modified is emitted when a file is written to
	Modified
	// Removed is emitted when a file is deleted
	Removed
	// Renamed is emitted for the old name of a renamed file
	Renamed
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is a single change below the watched root
type Event struct {
	Path string
	Kind EventKind
}

// kindOf maps an fsnotify operation to an event kind. Chmod-only events are dropped.
func kindOf(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	case op.Has(fsnotify.Remove):
		return Removed, true
	case op.Has(fsnotify.Rename):
		return Renamed, true
	default:
		return 0, false
	}
}
