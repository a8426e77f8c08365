package platform

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// getLinuxInfo returns platform-specific information for Linux. The Downloads
// directory comes from user-dirs.dirs when present.
func getLinuxInfo(homeDir, username, xdgConfigHome string) *Info {
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(homeDir, ".config")
	}

	downloads := filepath.Join(homeDir, "Downloads")
	if dir, ok := readXDGDownloadDir(filepath.Join(xdgConfigHome, "user-dirs.dirs"), homeDir); ok {
		downloads = dir
	}

	return &Info{
		OS:           Linux,
		HomeDir:      homeDir,
		Username:     username,
		DownloadsDir: downloads,
	}
}

// readXDGDownloadDir parses XDG_DOWNLOAD_DIR out of a user-dirs.dirs file:
//
//	XDG_DOWNLOAD_DIR="$HOME/Downloads"
func readXDGDownloadDir(path, homeDir string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) != "XDG_DOWNLOAD_DIR" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch {
		case value == "$HOME" || value == "$HOME/":
			// A download dir equal to home means it is disabled.
			return "", false
		case strings.HasPrefix(value, "$HOME/"):
			return filepath.Join(homeDir, strings.TrimPrefix(value, "$HOME/")), true
		case filepath.IsAbs(value):
			return filepath.Clean(value), true
		}
		return "", false
	}
	return "", false
}
