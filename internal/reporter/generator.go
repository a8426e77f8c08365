package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Generator writes the weekly report into Dir and keeps the status file
// next to it.
type Generator struct {
	Root   string
	Dir    string
	Format OutputFormat
	Moves  MoveCounter
	Logger *slog.Logger
	Now    func() time.Time
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Path is where the report file is written
func (g *Generator) Path() string {
	return filepath.Join(g.Dir, FileName(g.Format))
}

// StatusPath is where the last generation date is recorded
func (g *Generator) StatusPath() string {
	return filepath.Join(g.Dir, StatusFile)
}

// Generate collects the statistics, writes the report and records the date.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	now := g.now()
	report, err := Collect(ctx, g.Root, g.Moves, now)
	if err != nil {
		return "", err
	}
	path := g.Path()
	if err := SaveToFile(report, path, g.Format); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	if err := MarkGenerated(g.StatusPath(), now); err != nil {
		return "", err
	}
	if g.Logger != nil {
		g.Logger.Info("weekly report generated",
			"path", path,
			"files", report.TotalFiles,
			"archived", report.ArchivedFiles,
			"moved_this_week", report.MovedThisWeek,
		)
	}
	return path, nil
}

// GenerateIfNewWeek generates a report only when none exists for the current
// week. It reports whether a report was written.
func (g *Generator) GenerateIfNewWeek(ctx context.Context) (bool, error) {
	if !IsNewWeek(g.StatusPath(), g.now()) {
		return false, nil
	}
	if _, err := g.Generate(ctx); err != nil {
		return false, err
	}
	return true, nil
}
