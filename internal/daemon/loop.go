package daemon

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/mover"
	"github.com/fenilsonani/tidyd/internal/stability"
	"github.com/fenilsonani/tidyd/internal/sweep"
	"github.com/fenilsonani/tidyd/internal/watcher"
)

const (
	// SweepInterval is the wall-clock time between two archive sweeps
	SweepInterval = 60 * time.Second

	// CheckInterval is how often the loop wakes to check the sweep cursor
	// when no events arrive
	CheckInterval = time.Second

	// DefaultDrainTimeout bounds the work left after shutdown is requested
	DefaultDrainTimeout = 10 * time.Second
)

// ErrWatchClosed is returned by Run when the event stream ends while the loop
// is still supposed to be running.
var ErrWatchClosed = errors.New("watch stream closed")

// Stabilizer waits until a file stops changing
type Stabilizer interface {
	AwaitStable(ctx context.Context, path string) (stability.Result, error)
}

// Placer moves a file into destRoot/cat
type Placer interface {
	Place(ctx context.Context, path, destRoot string, cat category.Category) (mover.Result, error)
}

// Sweeper archives stale files below root
type Sweeper interface {
	Sweep(ctx context.Context, root, archiveRoot string, cutoff time.Duration, now time.Time) (*sweep.Result, error)
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithDrainTimeout sets how long an in-flight file may keep settling after
// shutdown is requested
func WithDrainTimeout(d time.Duration) LoopOption {
	return func(l *Loop) { l.drain = d }
}

// WithLoopClock replaces the clock used for the sweep cursor and cutoff
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// WithCheckInterval replaces the idle wake-up period
func WithCheckInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.check = d }
}

// Loop is the single coordination point between the watch stream, the
// stability detector, the mover and the periodic sweep. Every file is handled
// to completion before the next event is read.
type Loop struct {
	root    string
	archive string

	detector Stabilizer
	placer   Placer
	sweeper  Sweeper
	rules    *ignore.Rules
	logger   *slog.Logger

	drain time.Duration
	check time.Duration
	now   func() time.Time

	// lastSweep is the sweep cursor. Only Run touches it.
	lastSweep time.Time
}

// NewLoop creates the event loop for root. rules may be nil.
func NewLoop(root string, detector Stabilizer, placer Placer, sweeper Sweeper, rules *ignore.Rules, logger *slog.Logger, opts ...LoopOption) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	root = filepath.Clean(root)
	l := &Loop{
		root:     root,
		archive:  sweep.ArchiveRoot(root),
		detector: detector,
		placer:   placer,
		sweeper:  sweeper,
		rules:    rules,
		logger:   logger,
		drain:    DefaultDrainTimeout,
		check:    CheckInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LastSweep returns the sweep cursor
func (l *Loop) LastSweep() time.Time {
	return l.lastSweep
}

// Run consumes events until ctx is cancelled, in which case it returns nil, or
// until the event stream closes underneath it, in which case it returns
// ErrWatchClosed. Errors on errs are logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context, events <-chan watcher.Event, errs <-chan error) error {
	l.lastSweep = l.now()

	ticker := time.NewTicker(l.check)
	defer ticker.Stop()

	l.logger.Info("monitoring folder", "root", l.root)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					l.logger.Info("event loop stopped")
					return nil
				}
				return ErrWatchClosed
			}
			if ctx.Err() != nil {
				continue
			}
			l.handle(ctx, ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.logger.Error("file watcher error", "error", err)

		case <-ticker.C:
		}

		l.maybeSweep(ctx)
	}
}

// handle processes one event. All failures are logged here.
func (l *Loop) handle(ctx context.Context, ev watcher.Event) {
	path := filepath.Clean(ev.Path)
	if !l.accept(ev, path) {
		return
	}

	cat := category.ForPath(path)
	if mover.Target(path, l.root, cat) == path {
		return
	}

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("path vanished before processing", "path", path)
			return
		}
		l.logger.Error("stat failed", "path", path, "error", err)
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	l.logger.Info("file detected", "path", path, "event", ev.Kind.String())

	work, done := l.workContext(ctx)
	defer done()

	res, err := l.detector.AwaitStable(work, path)
	switch res {
	case stability.Ready:
	case stability.Gone:
		l.logger.Debug("file gone while settling", "path", path)
		return
	case stability.Unstable:
		l.logger.Warn("file still changing, skipped", "path", path)
		return
	default:
		if errors.Is(err, context.Canceled) {
			l.logger.Warn("shutdown interrupted settling", "path", path)
			return
		}
		l.logger.Error("stability check failed", "path", path, "error", err)
		return
	}

	if _, err := l.placer.Place(work, path, l.root, cat); err != nil {
		l.logger.Error("move failed", "path", path, "category", cat.String(), "error", err)
	}
}

// accept applies the cheap filters that need no filesystem access
func (l *Loop) accept(ev watcher.Event, path string) bool {
	switch {
	case ev.Kind == watcher.Removed:
		return false
	case ignore.Within(path, l.archive):
		return false
	case l.rules.Match(path):
		l.logger.Debug("ignored", "path", path)
		return false
	}
	return true
}

// workContext outlives ctx by the drain timeout so an in-flight file can
// finish once shutdown starts.
func (l *Loop) workContext(ctx context.Context) (context.Context, context.CancelFunc) {
	work, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, func() {
		timer := time.NewTimer(l.drain)
		defer timer.Stop()
		select {
		case <-timer.C:
			cancel()
		case <-work.Done():
		}
	})
	return work, func() {
		stop()
		cancel()
	}
}

// maybeSweep runs the archive sweep once SweepInterval has elapsed since the
// cursor and moves the cursor forward when it completes.
func (l *Loop) maybeSweep(ctx context.Context) {
	if ctx.Err() != nil || l.sweeper == nil {
		return
	}
	now := l.now()
	if now.Sub(l.lastSweep) < SweepInterval {
		return
	}

	res, err := l.sweeper.Sweep(ctx, l.root, l.archive, sweep.DefaultCutoff, now)
	if err != nil {
		l.logger.Error("periodic sweep failed", "root", l.root, "error", err)
	} else {
		for _, sweepErr := range res.Errors {
			l.logger.Warn("sweep entry failed", "error", sweepErr)
		}
	}
	l.lastSweep = l.now()
}
