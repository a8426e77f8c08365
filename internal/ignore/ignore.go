// Package ignore decides which paths under the watched root are left alone.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/fenilsonani/tidyd/internal/category"
)

// DefaultPatterns are applied when no patterns are configured
var DefaultPatterns = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}

// Rules matches paths that should never be moved
type Rules struct {
	// Root is the watched directory. Hidden components are only looked for below it.
	Root string
	// Patterns are filepath.Match globs tested against the base name
	Patterns []string
	// Hidden skips dot files and anything inside dot directories
	Hidden bool
}

// New creates rules for root. A nil patterns slice selects DefaultPatterns.
func New(root string, patterns []string, hidden bool) *Rules {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	return &Rules{
		Root:     filepath.Clean(root),
		Patterns: patterns,
		Hidden:   hidden,
	}
}

// Match reports whether path is ignored. In-progress download markers always match.
func (r *Rules) Match(path string) bool {
	if category.IsTransient(path) {
		return true
	}
	if r == nil {
		return false
	}

	if r.Hidden && r.hasHiddenComponent(path) {
		return true
	}

	base := filepath.Base(path)
	for _, pattern := range r.Patterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}

	return false
}

func (r *Rules) hasHiddenComponent(path string) bool {
	rel := filepath.Clean(path)
	if r.Root != "" && r.Root != "." {
		if p, err := filepath.Rel(r.Root, rel); err == nil && !strings.HasPrefix(p, "..") {
			rel = p
		}
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// Within reports whether path is dir itself or lies below it
func Within(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if path == dir {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
