// Package daemon runs the downloads organizer: it owns the watch, the event
// loop and the maintenance scheduler.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/fenilsonani/tidyd/internal/config"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/journal"
	"github.com/fenilsonani/tidyd/internal/mover"
	"github.com/fenilsonani/tidyd/internal/notify"
	"github.com/fenilsonani/tidyd/internal/platform"
	"github.com/fenilsonani/tidyd/internal/reporter"
	"github.com/fenilsonani/tidyd/internal/security"
	"github.com/fenilsonani/tidyd/internal/stability"
	"github.com/fenilsonani/tidyd/internal/sweep"
	"github.com/fenilsonani/tidyd/internal/watcher"
)

// ErrAlreadyRunning is returned when another instance holds the lock file.
var ErrAlreadyRunning = errors.New("daemon already running")

const jobPruneJournal = "journal-prune"

// Daemon represents the organizer daemon
type Daemon struct {
	config *config.Config
	logger *slog.Logger
	root   string

	lock      *flock.Flock
	journal   *journal.Store
	scheduler *Scheduler
}

// New creates a new daemon instance. The watched root is resolved here so
// callers can log it before Run.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	root, err := ResolveRoot(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		config: cfg,
		logger: logger.With("run_id", uuid.NewString()),
		root:   root,
	}, nil
}

// ResolveRoot returns the folder cfg says to organize, falling back to the
// platform Downloads folder, and refuses system and home directories.
func ResolveRoot(cfg *config.Config, logger *slog.Logger) (string, error) {
	info, err := platform.GetInfo()
	if err != nil && logger != nil {
		logger.Warn("platform lookup failed, using working directory fallback", "error", err)
	}
	root, err := platform.ResolveRoot(cfg.Root, info)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if err := security.NewPathValidator().ValidateRoot(root); err != nil {
		return "", fmt.Errorf("invalid root: %w", err)
	}
	return root, nil
}

// Root returns the watched directory
func (d *Daemon) Root() string {
	return d.root
}

// Start runs the daemon until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}

// Run runs the daemon until ctx is cancelled. Failing to take the lock or to
// establish the watch is fatal; so is the watch stream closing on its own.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.acquireLock(); err != nil {
		return err
	}
	defer d.releaseLock()

	if err := d.writePidFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer d.removePidFile()

	if err := platform.EnsureLayout(d.root); err != nil {
		return fmt.Errorf("create folder layout: %w", err)
	}

	if d.config.Journal.Enabled {
		store, err := journal.Open(d.config.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		d.journal = store
		defer func() {
			if err := store.Close(); err != nil {
				d.logger.Warn("closing journal", "error", err)
			}
		}()
	}

	rules := ignore.New(d.root, d.config.IgnorePatterns, d.config.IgnoreHidden)
	mv := NewMover(d.config, d.logger, d.journal)
	detector := stability.New(d.config.Stability.MaxWait.Std())
	sweeper := sweep.New(mv, rules, d.logger)

	d.scheduler = NewScheduler(ctx, d.logger)
	if err := d.scheduleJobs(ctx); err != nil {
		return err
	}
	if err := d.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer d.scheduler.Stop(d.drainTimeout())
	for _, job := range d.scheduler.ListJobs() {
		d.logger.Info("job scheduled", "job", job.Name, "next_run", job.NextRun.Format(time.RFC3339))
	}

	w, err := watcher.New(d.logger, watcher.Options{
		Exclude: []string{sweep.ArchiveRoot(d.root)},
		Rules:   rules,
	})
	if err != nil {
		return err
	}
	if err := w.Watch(d.root); err != nil {
		_ = w.Stop()
		return fmt.Errorf("watch %s: %w", d.root, err)
	}
	w.Start(ctx)
	defer func() {
		if err := w.Stop(); err != nil {
			d.logger.Warn("stopping watcher", "error", err)
		}
	}()

	loop := NewLoop(d.root, detector, mv, sweeper, rules, d.logger, WithDrainTimeout(d.drainTimeout()))
	d.logger.Info("daemon started", "root", d.root, "pid", os.Getpid())

	err = loop.Run(ctx, w.Events(), w.Errors())
	d.logger.Info("daemon shutting down")
	return err
}

// NewMover builds the mover used for live moves and sweeps: it notifies
// through the configured sinks and records into store when one is given.
func NewMover(cfg *config.Config, logger *slog.Logger, store *journal.Store) *mover.Mover {
	opts := []mover.Option{mover.WithNotifier(notify.New(cfg.Notifications, logger))}
	if store != nil {
		opts = append(opts, mover.WithRecorder(store))
	}
	return mover.New(logger, opts...)
}

func (d *Daemon) drainTimeout() time.Duration {
	if t := d.config.Daemon.DrainTimeout.Std(); t > 0 {
		return t
	}
	return DefaultDrainTimeout
}

// scheduleJobs registers the weekly report and the journal prune job, and
// generates the report right away when none exists for this week.
func (d *Daemon) scheduleJobs(ctx context.Context) error {
	if d.config.Report.Enabled {
		gen, err := d.reportGenerator()
		if err != nil {
			return err
		}
		if _, err := gen.GenerateIfNewWeek(ctx); err != nil {
			d.logger.Error("weekly report failed", "error", err)
		}
		err = d.scheduler.AddJob(Job{
			Name:     "weekly-report",
			Schedule: d.config.Report.Schedule,
			Run: func(ctx context.Context) error {
				_, err := gen.Generate(ctx)
				return err
			},
		})
		if err != nil {
			return err
		}
	}

	if d.journal != nil && d.config.Journal.RetentionDays > 0 {
		retention := time.Duration(d.config.Journal.RetentionDays) * 24 * time.Hour
		store := d.journal
		err := d.scheduler.AddJob(Job{
			Name:     jobPruneJournal,
			Schedule: "@daily",
			Run: func(ctx context.Context) error {
				n, err := store.Prune(ctx, time.Now().Add(-retention))
				if err != nil {
					return err
				}
				d.logger.Info("journal pruned", "removed", n)
				return nil
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) reportGenerator() (*reporter.Generator, error) {
	format, err := reporter.ParseFormat(d.config.Report.Format)
	if err != nil {
		return nil, err
	}
	gen := &reporter.Generator{
		Root:   d.root,
		Dir:    d.config.Report.Path,
		Format: format,
		Logger: d.logger,
	}
	if d.journal != nil {
		gen.Moves = d.journal
	}
	return gen, nil
}

// acquireLock takes an exclusive advisory lock so only one daemon watches
// the folder.
func (d *Daemon) acquireLock() error {
	path := lockPath(d.config)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (lock %s held)", ErrAlreadyRunning, path)
	}
	d.lock = lock
	return nil
}

func lockPath(cfg *config.Config) string {
	if cfg.Daemon.LockFile != "" {
		return cfg.Daemon.LockFile
	}
	return filepath.Join(config.StateDir(), "tidyd.lock")
}

// Running reports whether another process holds the daemon lock. It never
// creates the lock file.
func Running(cfg *config.Config) (bool, error) {
	path := lockPath(cfg)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("check lock %s: %w", path, err)
	}
	if locked {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

// releaseLock releases the lock file
func (d *Daemon) releaseLock() {
	if d.lock == nil {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", "error", err)
	}
}

// writePidFile writes the PID file
func (d *Daemon) writePidFile() error {
	pidFile := d.config.Daemon.PidFile
	if pidFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(pidFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

// removePidFile removes the PID file
func (d *Daemon) removePidFile() {
	if d.config.Daemon.PidFile == "" {
		return
	}
	if err := os.Remove(d.config.Daemon.PidFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("remove pid file", "error", err)
	}
}

// ReadPid returns the pid stored in pidFile
func ReadPid(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", pidFile, err)
	}
	return pid, nil
}
