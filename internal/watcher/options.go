package watcher

import (
	"github.com/fenilsonani/tidyd/internal/ignore"
)

// DefaultBufferSize is the capacity of the events channel
const DefaultBufferSize = 256

// Options configures the file watcher behavior.
type Options struct {
	// Exclude lists directory trees that are neither watched nor reported
	Exclude []string

	// Rules filters ignored files and directories. May be nil.
	Rules *ignore.Rules

	// BufferSize of the events channel
	BufferSize int
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
}

// excluded reports whether path lies in an excluded tree
func (o *Options) excluded(path string) bool {
	for _, dir := range o.Exclude {
		if ignore.Within(path, dir) {
			return true
		}
	}
	return false
}

// shouldIgnore checks if a path is excluded or matches ignore rules.
func (o *Options) shouldIgnore(path string) bool {
	return o.excluded(path) || o.Rules.Match(path)
}
