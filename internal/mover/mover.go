// Package mover relocates downloads into category folders.
package mover

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/tidyd/internal/category"
)

// Outcome tags what Place did with a file
type Outcome int

const (
	// Moved means the file was renamed into the category folder
	Moved Outcome = iota
	// NoOp means the file already sits in the right folder
	NoOp
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case NoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// Result is returned by a successful Place
type Result struct {
	Outcome Outcome
	NewPath string
}

// Move describes a completed relocation
type Move struct {
	Name     string
	From     string
	To       string
	DestRoot string
	Category category.Category
	Size     int64
	MovedAt  time.Time
}

// Notifier is told about every completed move
type Notifier interface {
	Notify(ctx context.Context, fileName string, cat category.Category) error
}

// Recorder persists completed moves
type Recorder interface {
	RecordMove(ctx context.Context, m Move) error
}

// Mover renames files into <destRoot>/<Category>/
type Mover struct {
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Mover
type Option func(*Mover)

// WithNotifier sets the notification sink
func WithNotifier(n Notifier) Option {
	return func(m *Mover) { m.notifier = n }
}

// WithRecorder sets the move journal
func WithRecorder(r Recorder) Option {
	return func(m *Mover) { m.recorder = r }
}

// WithClock overrides the time source used for Move.MovedAt
func WithClock(now func() time.Time) Option {
	return func(m *Mover) { m.now = now }
}

// New creates a Mover
func New(logger *slog.Logger, opts ...Option) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mover{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// maxSuffix bounds the " (n)" variants tried for a taken name
const maxSuffix = 999

// Target returns the path a file would be moved to
func Target(path, destRoot string, cat category.Category) string {
	return filepath.Join(destRoot, cat.String(), filepath.Base(path))
}

// Place moves path into destRoot/cat. When the file is already there nothing is
// renamed and nobody is notified, so calling Place twice is safe. A file that
// already occupies the target name is never replaced: the new one is filed as
// "name (1).ext", "name (2).ext" and so on. Rename and mkdir failures are returned
// as *MoveError wrapping the filesystem error.
func (m *Mover) Place(ctx context.Context, path, destRoot string, cat category.Category) (Result, error) {
	path = filepath.Clean(path)
	targetDir := filepath.Join(destRoot, cat.String())

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Result{}, CategorizeError("mkdir", path, targetDir, err)
	}

	name := filepath.Base(path)
	newPath := filepath.Join(targetDir, name)
	if newPath == path {
		return Result{Outcome: NoOp, NewPath: path}, nil
	}

	newPath, err := freeName(newPath)
	if err != nil {
		return Result{}, CategorizeError("rename", path, filepath.Join(targetDir, name), err)
	}
	if newPath != filepath.Join(targetDir, name) {
		m.logger.Info("target name taken, using numbered name",
			"path", path,
			"target", newPath,
		)
	}

	var size int64
	if info, err := os.Lstat(path); err == nil {
		size = info.Size()
	}

	if err := os.Rename(path, newPath); err != nil {
		return Result{}, CategorizeError("rename", path, newPath, err)
	}

	name = filepath.Base(newPath)
	m.logger.Info("moved file",
		"path", path,
		"target", newPath,
		"category", cat.String(),
	)

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, name, cat); err != nil {
			m.logger.Warn("notification failed", "file", name, "category", cat.String(), "error", err)
		}
	}

	if m.recorder != nil {
		move := Move{
			Name:     name,
			From:     path,
			To:       newPath,
			DestRoot: filepath.Clean(destRoot),
			Category: cat,
			Size:     size,
			MovedAt:  m.now(),
		}
		if err := m.recorder.RecordMove(ctx, move); err != nil {
			m.logger.Warn("failed to record move", "path", newPath, "error", fmt.Errorf("journal: %w", err))
		}
	}

	return Result{Outcome: Moved, NewPath: newPath}, nil
}

// freeName returns target when nothing exists there, otherwise the first
// "base (n)ext" variant that is free.
func freeName(target string) (string, error) {
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return target, nil
	} else if err != nil {
		return "", err
	}

	dir := filepath.Dir(target)
	ext := filepath.Ext(target)
	base := strings.TrimSuffix(filepath.Base(target), ext)
	for n := 1; n <= maxSuffix; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: %w", target, ErrNoFreeName)
}
