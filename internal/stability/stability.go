// Package stability decides when a file that is still being written has settled.
//
// A file is considered settled once two consecutive size observations, taken one
// settle interval apart, are equal. The detector keeps no state between calls; all
// bookkeeping for a path lives in a single AwaitStable invocation.
package stability

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// SettleInterval is the delay between two size observations
const SettleInterval = time.Second

// Result is the outcome of waiting for a file to settle
type Result int

const (
	// Ready means the size did not change across one settle interval
	Ready Result = iota
	// Gone means the path disappeared (renamed or deleted by another actor)
	Gone
	// Unstable means the file kept changing until MaxWait ran out
	Unstable
	// Failed accompanies a non-nil error
	Failed
)

// String returns the string representation of the result
func (r Result) String() string {
	switch r {
	case Ready:
		return "ready"
	case Gone:
		return "gone"
	case Unstable:
		return "unstable"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatFunc returns file metadata for a path
type StatFunc func(path string) (fs.FileInfo, error)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Detector polls file sizes until they settle
type Detector struct {
	// Interval between observations. Zero means SettleInterval.
	Interval time.Duration

	// MaxWait bounds the total time spent sleeping for one path.
	// Zero waits for as long as the file keeps changing.
	MaxWait time.Duration

	stat  StatFunc
	sleep SleepFunc
}

// Option configures a Detector
type Option func(*Detector)

// WithStat replaces the metadata lookup
func WithStat(fn StatFunc) Option {
	return func(d *Detector) { d.stat = fn }
}

// WithSleep replaces the wait between observations
func WithSleep(fn SleepFunc) Option {
	return func(d *Detector) { d.sleep = fn }
}

// New creates a detector that gives up after maxWait
func New(maxWait time.Duration, opts ...Option) *Detector {
	d := &Detector{
		Interval: SettleInterval,
		MaxWait:  maxWait,
		stat:     os.Stat,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AwaitStable blocks until the file at path stops growing, disappears, or MaxWait
// is exhausted. The previous size starts at zero, so an empty file is Ready on the
// first observation. Errors other than not-found are returned to the caller.
func (d *Detector) AwaitStable(ctx context.Context, path string) (Result, error) {
	interval := d.Interval
	if interval <= 0 {
		interval = SettleInterval
	}

	var previous int64
	var waited time.Duration

	for {
		info, err := d.stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Gone, nil
			}
			return Failed, fmt.Errorf("stat %s: %w", path, err)
		}

		current := info.Size()
		if current == previous {
			return Ready, nil
		}
		previous = current

		if d.MaxWait > 0 && waited >= d.MaxWait {
			return Unstable, nil
		}

		if err := d.sleep(ctx, interval); err != nil {
			return Failed, err
		}
		waited += interval
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
