package platform

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/sweep"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific information and paths
type Info struct {
	OS           Platform
	HomeDir      string
	Username     string
	DownloadsDir string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information
func GetInfo() (*Info, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	switch Detect() {
	case MacOS:
		return getMacOSInfo(currentUser.HomeDir, currentUser.Username), nil
	case Linux:
		return getLinuxInfo(currentUser.HomeDir, currentUser.Username, os.Getenv("XDG_CONFIG_HOME")), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// ResolveRoot picks the watched root. A configured path wins. Otherwise the
// platform Downloads directory is used when it exists, and as a last resort
// ./Downloads under the working directory is created.
func ResolveRoot(configured string, info *Info) (string, error) {
	if configured != "" {
		return filepath.Clean(configured), nil
	}

	if info != nil && info.DownloadsDir != "" {
		if st, err := os.Stat(info.DownloadsDir); err == nil && st.IsDir() {
			return info.DownloadsDir, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	fallback := filepath.Join(cwd, "Downloads")
	if err := os.MkdirAll(fallback, 0o755); err != nil {
		return "", fmt.Errorf("create fallback downloads directory: %w", err)
	}
	return fallback, nil
}

// LayoutDirs lists every folder the layout requires under root: one per
// category, and the same set again under the archive folder.
func LayoutDirs(root string) []string {
	dirs := make([]string, 0, 2*len(category.All()))
	for _, cat := range category.All() {
		dirs = append(dirs, filepath.Join(root, cat.String()))
	}
	for _, cat := range category.All() {
		dirs = append(dirs, filepath.Join(sweep.ArchiveRoot(root), cat.String()))
	}
	return dirs
}

// EnsureLayout creates the category and archive folders under root.
func EnsureLayout(root string) error {
	for _, dir := range LayoutDirs(root) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
