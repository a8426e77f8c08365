// Package sweep archives files that have not been touched for a long time.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/mover"
)

const (
	// DefaultCutoff is the age after which a file is archived
	DefaultCutoff = 30 * 24 * time.Hour

	// ArchiveDir is the name of the archive folder under the watched root
	ArchiveDir = "Unused"
)

// Placer moves a file into destRoot/cat
type Placer interface {
	Place(ctx context.Context, path, destRoot string, cat category.Category) (mover.Result, error)
}

// Sweeper walks the watched root and archives stale files
type Sweeper struct {
	placer Placer
	rules  *ignore.Rules
	logger *slog.Logger

	// DryRun reports candidates without moving them
	DryRun bool
}

// New creates a Sweeper. rules may be nil.
func New(placer Placer, rules *ignore.Rules, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		placer: placer,
		rules:  rules,
		logger: logger,
	}
}

// ArchiveRoot returns the archive folder for root
func ArchiveRoot(root string) string {
	return filepath.Join(root, ArchiveDir)
}

// Sweep walks root depth-first and moves every regular file whose modification
// time is at least cutoff before now into archiveRoot/<Category>. The archive
// tree itself is never entered. Problems with single entries are collected in
// Result.Errors; the returned error is reserved for an unreadable root or a
// cancelled context.
func (s *Sweeper) Sweep(ctx context.Context, root, archiveRoot string, cutoff time.Duration, now time.Time) (*Result, error) {
	start := time.Now()
	root = filepath.Clean(root)
	archiveRoot = filepath.Clean(archiveRoot)

	result := &Result{
		Root:       root,
		Candidates: []Candidate{},
		Errors:     []error{},
	}

	s.logger.Info("sweep started", "root", root, "archive", archiveRoot, "cutoff", cutoff, "dry_run", s.DryRun)

	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == root {
				return nil, fmt.Errorf("read root %s: %w", root, err)
			}
			s.recordError(result, fmt.Errorf("read dir %s: %w", dir, err))
			continue
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				if ignore.Within(path, archiveRoot) || s.rules.Match(path) {
					continue
				}
				stack = append(stack, path)
				continue
			}

			if !entry.Type().IsRegular() || s.rules.Match(path) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				if !os.IsNotExist(err) {
					s.recordError(result, fmt.Errorf("stat %s: %w", path, err))
				}
				continue
			}

			result.Visited++
			if now.Sub(info.ModTime()) < cutoff {
				result.Young++
				continue
			}

			cat := category.ForPath(path)
			candidate := Candidate{
				Path:     path,
				Target:   mover.Target(path, archiveRoot, cat),
				Size:     info.Size(),
				ModTime:  info.ModTime(),
				Category: cat,
			}

			if !s.DryRun {
				if _, err := s.placer.Place(ctx, path, archiveRoot, cat); err != nil {
					s.recordError(result, err)
					continue
				}
				candidate.Archived = true
				result.Archived++
			}

			result.Candidates = append(result.Candidates, candidate)
			result.TotalSize += candidate.Size
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("sweep finished",
		"root", root,
		"visited", result.Visited,
		"archived", result.Archived,
		"candidates", len(result.Candidates),
		"errors", len(result.Errors),
		"duration", result.Duration,
	)

	return result, nil
}

func (s *Sweeper) recordError(result *Result, err error) {
	s.logger.Error("sweep entry failed", "error", err)
	result.Errors = append(result.Errors, err)
}
