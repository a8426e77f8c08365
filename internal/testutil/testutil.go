// Package testutil builds throwaway downloads folders for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/tidyd/internal/category"
)

// Day is a convenience duration for file ages
const Day = 24 * time.Hour

// TestFixture is a downloads folder under t.TempDir()
type TestFixture struct {
	T       *testing.T
	RootDir string

	// ArchiveDir is RootDir/Unused
	ArchiveDir string
}

// NewFixture creates an empty downloads folder
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()
	root := t.TempDir()
	return &TestFixture{T: t, RootDir: root, ArchiveDir: filepath.Join(root, "Unused")}
}

// NewLayoutFixture creates a downloads folder that already has every category
// folder, both live and under Unused.
func NewLayoutFixture(t *testing.T) *TestFixture {
	t.Helper()
	f := NewFixture(t)
	for _, cat := range category.All() {
		f.CreateDir(cat.String())
		f.CreateDir(filepath.Join("Unused", cat.String()))
	}
	return f
}

// Path returns the absolute path of relPath inside the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// CreateFile writes content to relPath, creating parents, and returns the
// absolute path.
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()
	full := f.Path(relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		f.T.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		f.T.Fatalf("write %s: %v", full, err)
	}
	return full
}

// CreateFileWithAge is CreateFile followed by backdating the mtime by age
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()
	full := f.CreateFile(relPath, content)
	old := time.Now().Add(-age)
	if err := os.Chtimes(full, old, old); err != nil {
		f.T.Fatalf("chtimes %s: %v", full, err)
	}
	return full
}

// CreateDownload creates a size-byte file last modified ageDays ago
func (f *TestFixture) CreateDownload(relPath string, size int, ageDays int) string {
	f.T.Helper()
	return f.CreateFileWithAge(relPath, make([]byte, size), time.Duration(ageDays)*Day)
}

// CreateDir creates relPath and its parents
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()
	full := f.Path(relPath)
	if err := os.MkdirAll(full, 0o755); err != nil {
		f.T.Fatalf("mkdir %s: %v", full, err)
	}
	return full
}

// CreateUnreadableDir creates a directory that cannot be listed. Permissions
// are restored on cleanup so TempDir can remove it.
func (f *TestFixture) CreateUnreadableDir(relPath string) string {
	f.T.Helper()
	dir := f.CreateDir(relPath)
	if err := os.Chmod(dir, 0); err != nil {
		f.T.Fatalf("chmod %s: %v", dir, err)
	}
	f.T.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	return dir
}

// FileExists reports whether path exists
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists fails the test when path is missing
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected %s to exist", path)
	}
}

// AssertFileNotExists fails the test when path exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected %s to be gone", path)
	}
}

// AssertFileSize fails the test unless path is exactly want bytes long
func (f *TestFixture) AssertFileSize(path string, want int64) {
	f.T.Helper()
	info, err := os.Stat(path)
	if err != nil {
		f.T.Errorf("stat %s: %v", path, err)
		return
	}
	if info.Size() != want {
		f.T.Errorf("%s is %d bytes, want %d", path, info.Size(), want)
	}
}

// SkipIfRoot skips tests that rely on permission errors, which root ignores
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("skipping test when running as root")
	}
}
