package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/mover"
)

// Filed is one loose file handled by Organize
type Filed struct {
	Path     string
	Target   string
	Category category.Category
	Size     int64
	Moved    bool
}

// OrganizeResult summarizes one Organize pass
type OrganizeResult struct {
	Files  []Filed
	Moved  int
	Errors []error
}

// Organize files every regular file lying directly in root, the same way the
// loop files a new download but without waiting for it to settle. Category
// folders and the archive are left alone. With dryRun nothing is moved.
func Organize(ctx context.Context, root string, placer Placer, rules *ignore.Rules, dryRun bool, logger *slog.Logger) (*OrganizeResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root = filepath.Clean(root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root %s: %w", root, err)
	}

	result := &OrganizeResult{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if rules.Match(path) {
			logger.Debug("ignored", "path", path)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, fmt.Errorf("stat %s: %w", path, err))
			}
			continue
		}

		cat := category.ForPath(path)
		filed := Filed{
			Path:     path,
			Target:   mover.Target(path, root, cat),
			Category: cat,
			Size:     info.Size(),
		}
		if !dryRun {
			res, err := placer.Place(ctx, path, root, cat)
			if err != nil {
				logger.Error("move failed", "path", path, "category", cat.String(), "error", err)
				result.Errors = append(result.Errors, err)
				continue
			}
			filed.Moved = res.Outcome == mover.Moved
			if filed.Moved {
				result.Moved++
			}
		}
		result.Files = append(result.Files, filed)
	}

	logger.Info("organize finished", "root", root, "files", len(result.Files), "moved", result.Moved, "errors", len(result.Errors), "dry_run", dryRun)
	return result, nil
}
