// Package category maps file extensions to the folder a download is filed under.
package category

import (
	"path/filepath"
	"sort"
	"strings"
)

// Category is the label of a category folder under the watched root.
type Category string

const (
	Images    Category = "Images"
	Videos    Category = "Videos"
	Documents Category = "Documents"
	Archives  Category = "Archives"
	Audio     Category = "Audio"
	Others    Category = "Others"
)

// String returns the folder name for the category
func (c Category) String() string {
	return string(c)
}

// extensions is the fixed extension table. Keys are lowercase without the leading dot.
var extensions = map[string]Category{
	"jpg": Images, "png": Images, "gif": Images, "bmp": Images, "tiff": Images, "svg": Images, "webp": Images,

	"mp4": Videos, "mkv": Videos, "avi": Videos, "mov": Videos, "flv": Videos, "wmv": Videos, "webm": Videos, "mpeg": Videos,

	"pdf": Documents, "doc": Documents, "docx": Documents, "xls": Documents, "xlsx": Documents,
	"ppt": Documents, "pptx": Documents, "txt": Documents, "csv": Documents,

	"zip": Archives, "rar": Archives, "7z": Archives, "tar": Archives, "gz": Archives,
	"bz2": Archives, "xz": Archives, "iso": Archives, "dmg": Archives,

	"mp3": Audio, "wav": Audio, "aac": Audio, "flac": Audio, "ogg": Audio, "wma": Audio, "m4a": Audio,
}

// transient lists extensions browsers and download managers use for files still being written.
var transient = map[string]struct{}{
	"tmp":        {},
	"part":       {},
	"partial":    {},
	"crdownload": {},
	"download":   {},
}

// All returns every category in folder-creation order
func All() []Category {
	return []Category{Images, Videos, Documents, Archives, Audio, Others}
}

// Classify returns the category for an extension. The match is case-insensitive and
// the leading dot is optional. Empty or unknown extensions map to Others.
func Classify(ext string) Category {
	ext = normalize(ext)
	if ext == "" {
		return Others
	}
	if c, ok := extensions[ext]; ok {
		return c
	}
	return Others
}

// ForPath classifies a path by the extension of its final element
func ForPath(path string) Category {
	return Classify(filepath.Ext(path))
}

// IsTransient reports whether path carries an in-progress download marker
func IsTransient(path string) bool {
	_, ok := transient[normalize(filepath.Ext(path))]
	return ok
}

// Parse converts a folder name back to a category, reporting false for unknown names
func Parse(name string) (Category, bool) {
	for _, c := range All() {
		if strings.EqualFold(name, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Extensions returns the extensions filed under c, sorted
func Extensions(c Category) []string {
	var out []string
	for ext, cat := range extensions {
		if cat == c {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
