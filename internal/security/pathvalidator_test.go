package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateRoot(t *testing.T) {
	pv := NewPathValidator()
	pv.homeDir = "/home/alex"

	tests := []struct {
		name        string
		path        string
		shouldError bool
		errorMsg    string
	}{
		{"downloads folder", "/home/alex/Downloads", false, ""},
		{"nested folder", "/home/alex/media/incoming", false, ""},
		{"tmp folder", "/tmp/dl", false, ""},
		{"relative path", "Downloads", true, "must be absolute"},
		{"empty path", "", true, "must be absolute"},
		{"filesystem root", "/", true, "protected path"},
		{"home parent", "/home", true, "protected path"},
		{"macOS users", "/Users", true, "protected path"},
		{"home directory", "/home/alex", true, "home directory"},
		{"etc", "/etc", true, "system path"},
		{"inside usr", "/usr/local/share", true, "system path"},
		{"macOS library", "/Library/Caches", true, "system path"},
		{"dot segments", "/home/alex/../bob/Downloads", true, "suspicious elements"},
		{"trailing slash", "/home/alex/Downloads/", true, "suspicious elements"},
		{"newline", "/home/alex/Down\nloads", true, "control characters"},
		{"parentheses are fine", "/home/alex/Downloads (old)", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidateRoot(tt.path)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errorMsg)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidateRootFollowsSymlinks(t *testing.T) {
	if _, err := os.Stat("/etc"); err != nil {
		t.Skip("no /etc on this system")
	}

	link := filepath.Join(t.TempDir(), "Downloads")
	if err := os.Symlink("/etc", link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	pv := NewPathValidator()
	if err := pv.ValidateRoot(link); err == nil {
		t.Error("expected symlink into /etc to be refused")
	}
}

func TestIsProtectedPath(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name        string
		path        string
		isProtected bool
	}{
		{"etc directory", "/etc", true},
		{"usr directory", "/usr", true},
		{"file in usr", "/usr/bin/ls", true},
		{"system directory (macOS)", "/System", true},
		{"applications directory (macOS)", "/Applications", true},
		{"var cache", "/var/cache/test", true},
		{"temp file", "/tmp/test.txt", false},
		{"user library", "/Users/test/Library/Caches", false},
		{"home user subdir", "/home/user/Downloads/test", false},
		{"prefix but not child", "/usrdata/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pv.IsProtectedPath(tt.path)
			if result != tt.isProtected {
				t.Errorf("IsProtectedPath(%s) = %v, want %v", tt.path, result, tt.isProtected)
			}
		})
	}
}

func TestAddProtectedPath(t *testing.T) {
	pv := NewPathValidator()
	pv.AddProtectedPath("/mnt/backup/")

	if !pv.IsProtectedPath("/mnt/backup/Downloads") {
		t.Error("expected custom protected path to apply to children")
	}
	if err := pv.ValidateRoot("/mnt/backup/Downloads"); err == nil {
		t.Error("expected ValidateRoot to refuse custom protected path")
	}
}

func TestValidateGlobPattern(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		shouldError bool
	}{
		{"simple wildcard", "*.txt", false},
		{"character class", "[abc]*.txt", false},
		{"question mark", "file?.txt", false},
		{"exact name", "Thumbs.db", false},
		{"braces are literal", "*.{txt,log}", false},
		{"empty pattern", "", true},
		{"unmatched bracket", "[abc", true},
		{"pattern with traversal", "../*.txt", true},
		{"path pattern", "Images/*.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlobPattern(tt.pattern)

			if tt.shouldError && err == nil {
				t.Errorf("Expected error for pattern '%s', got nil", tt.pattern)
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error for pattern '%s', got: %v", tt.pattern, err)
			}
		})
	}
}
