package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator decides whether a directory may be used as a watched root.
// Every regular file below a watched root gets moved, so system trees and the
// home directory itself are refused.
type PathValidator struct {
	protectedPaths []string
	// homeParents may only be refused by exact match; their children are homes
	homeParents []string
	homeDir     string
	// tempDirs are writable scratch space even when they live under /var
	tempDirs []string
}

// NewPathValidator creates a new PathValidator with default protected paths
func NewPathValidator() *PathValidator {
	home, _ := os.UserHomeDir()
	return &PathValidator{
		protectedPaths: []string{
			// Unix system directories
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/sbin",
			"/sys",
			"/usr",
			"/var",
			// macOS system directories
			"/System",
			"/Applications",
			"/Library",
			"/private/etc",
			"/private/var",
		},
		homeParents: []string{
			"/",
			"/home",
			"/Users",
			"/root",
		},
		homeDir:  filepath.Clean(home),
		tempDirs: tempDirs(),
	}
}

func tempDirs() []string {
	dirs := []string{filepath.Clean(os.TempDir())}
	if resolved, err := filepath.EvalSymlinks(os.TempDir()); err == nil {
		dirs = append(dirs, filepath.Clean(resolved))
	}
	return dirs
}

// ValidateRoot checks that path is a safe directory to organize.
func (pv *PathValidator) ValidateRoot(path string) error {
	// Step 1: Path must be absolute
	if !filepath.IsAbs(path) {
		return fmt.Errorf("root must be absolute: %s", path)
	}

	// Step 2: Resolve symlinks so ~/Downloads -> /etc is caught
	resolvedPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Not created yet, validate the path itself
			resolvedPath = path
		} else {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
	}

	// Step 3: Reject dot segments and doubled separators
	if filepath.Clean(path) != path {
		return fmt.Errorf("root contains suspicious elements: %s", path)
	}
	cleanPath := filepath.Clean(resolvedPath)

	// Step 4: Control characters break log lines and notification payloads
	for _, char := range []string{"\x00", "\n", "\r"} {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("root contains control characters: %q", cleanPath)
		}
	}

	// Step 5: Check against protected paths
	return pv.checkProtectedPaths(cleanPath)
}

// checkProtectedPaths validates that a path is not a system directory or a home
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, parent := range pv.homeParents {
		if cleanPath == parent {
			return fmt.Errorf("refusing to organize protected path: %s", cleanPath)
		}
	}

	if pv.homeDir != "" && pv.homeDir != "." && cleanPath == pv.homeDir {
		return fmt.Errorf("refusing to organize the home directory: %s", cleanPath)
	}

	for _, tmp := range pv.tempDirs {
		if cleanPath != tmp && strings.HasPrefix(cleanPath, tmp+"/") {
			return nil
		}
	}

	if pv.IsProtectedPath(cleanPath) {
		return fmt.Errorf("refusing to organize system path: %s", cleanPath)
	}

	return nil
}

// IsProtectedPath checks if a path is inside a protected system path
func (pv *PathValidator) IsProtectedPath(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected || strings.HasPrefix(cleanPath, protected+"/") {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// ValidateGlobPattern validates an ignore pattern. Patterns match base names,
// so separators and traversal are rejected.
func ValidateGlobPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("glob pattern is empty")
	}

	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	if strings.ContainsRune(pattern, '/') {
		return fmt.Errorf("glob pattern must match a file name, not a path: %s", pattern)
	}

	// Try to match the pattern to ensure it's valid
	_, err := filepath.Match(pattern, "test")
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}
