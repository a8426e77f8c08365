package reporter

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/journal"
	"github.com/fenilsonani/tidyd/internal/sweep"
)

// Week is the journal window a report covers
const Week = 7 * 24 * time.Hour

// MoveCounter is the part of the journal the report reads.
type MoveCounter interface {
	CountsSince(ctx context.Context, since time.Time, destRoot string) (map[category.Category]journal.Totals, error)
}

// Row holds the figures for one category
type Row struct {
	Category      category.Category `json:"category" yaml:"category"`
	Files         int               `json:"files" yaml:"files"`
	Size          int64             `json:"size" yaml:"size"`
	ArchivedFiles int               `json:"archived_files" yaml:"archived_files"`
	ArchivedSize  int64             `json:"archived_size" yaml:"archived_size"`
	MovedThisWeek int               `json:"moved_this_week" yaml:"moved_this_week"`
	SweptThisWeek int               `json:"swept_this_week" yaml:"swept_this_week"`
}

// Report is a point-in-time summary of the organized folder.
type Report struct {
	GeneratedAt   time.Time `json:"generated_at" yaml:"generated_at"`
	Root          string    `json:"root" yaml:"root"`
	Rows          []Row     `json:"categories" yaml:"categories"`
	TotalFiles    int       `json:"total_files" yaml:"total_files"`
	TotalSize     int64     `json:"total_size" yaml:"total_size"`
	ArchivedFiles int       `json:"archived_files" yaml:"archived_files"`
	ArchivedSize  int64     `json:"archived_size" yaml:"archived_size"`
	MovedThisWeek int       `json:"moved_this_week" yaml:"moved_this_week"`
	SweptThisWeek int       `json:"swept_this_week" yaml:"swept_this_week"`
	Errors        int       `json:"errors" yaml:"errors"`
}

// Collect walks root and gathers per-category totals for the live and
// archive trees. When moves is non-nil the journal counts for the week ending
// at now are merged in. Unreadable entries are counted in Errors.
func Collect(ctx context.Context, root string, moves MoveCounter, now time.Time) (*Report, error) {
	root = filepath.Clean(root)
	archive := sweep.ArchiveRoot(root)

	rows := make(map[category.Category]*Row)
	for _, cat := range category.All() {
		rows[cat] = &Row{Category: cat}
	}

	report := &Report{GeneratedAt: now, Root: root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			report.Errors++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			report.Errors++
			return nil
		}

		row := rows[category.ForPath(path)]
		size := info.Size()
		if ignore.Within(path, archive) {
			row.ArchivedFiles++
			row.ArchivedSize += size
			report.ArchivedFiles++
			report.ArchivedSize += size
			return nil
		}
		row.Files++
		row.Size += size
		report.TotalFiles++
		report.TotalSize += size
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	if moves != nil {
		since := now.Add(-Week)
		live, err := moves.CountsSince(ctx, since, root)
		if err != nil {
			return nil, fmt.Errorf("count live moves: %w", err)
		}
		swept, err := moves.CountsSince(ctx, since, archive)
		if err != nil {
			return nil, fmt.Errorf("count archived moves: %w", err)
		}
		for cat, t := range live {
			if row, ok := rows[cat]; ok {
				row.MovedThisWeek = t.Count
				report.MovedThisWeek += t.Count
			}
		}
		for cat, t := range swept {
			if row, ok := rows[cat]; ok {
				row.SweptThisWeek = t.Count
				report.SweptThisWeek += t.Count
			}
		}
	}

	for _, cat := range category.All() {
		report.Rows = append(report.Rows, *rows[cat])
	}
	return report, nil
}
