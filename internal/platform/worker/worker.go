// Package worker runs the poll loop that drives batch invocations in serve mode.
// It owns cancellation, periodic side tasks and panic recovery so callers only
// supply the work itself.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// ProcessFunc is called each iteration to process work items.
// It should return quickly if no work is available.
type ProcessFunc func(ctx context.Context) error

// PeriodicTask represents a task that runs at regular intervals.
type PeriodicTask struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
	lastRun  time.Time
}

// Config configures the worker loop behavior.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// PollInterval is the time between process iterations.
	PollInterval time.Duration

	// Process is called each iteration to do the main work.
	Process ProcessFunc

	// PeriodicTasks are run at their configured intervals, before Process.
	PeriodicTasks []PeriodicTask

	// OnError is called when Process returns an error or panics.
	// Return true to continue, false to exit the loop.
	OnError func(err error) bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// Loop runs Process immediately and then once per PollInterval until ctx is canceled.
// Returns a wrapped ctx.Err() on cancellation, or the error OnError chose not to survive.
func Loop(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	logger.Info().
		Str(logFieldWorker, cfg.Name).
		Dur("poll_interval", cfg.PollInterval).
		Msg("starting worker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	tasks := make([]PeriodicTask, len(cfg.PeriodicTasks))
	copy(tasks, cfg.PeriodicTasks)

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		runPeriodicTasks(ctx, tasks, time.Now(), logger)

		if err := runProcessStep(ctx, cfg, logger); err != nil {
			return err
		}

		if err := Wait(ctx, cfg.PollInterval); err != nil {
			return fmt.Errorf("worker loop %s: %w", cfg.Name, err)
		}
	}
}

// runPeriodicTasks runs any periodic tasks that are due at now.
func runPeriodicTasks(ctx context.Context, tasks []PeriodicTask, now time.Time, logger *zerolog.Logger) {
	for i := range tasks {
		task := &tasks[i]
		if task.Interval <= 0 || task.Run == nil {
			continue
		}

		if now.Sub(task.lastRun) >= task.Interval {
			logger.Debug().Str(logFieldTask, task.Name).Msg("running periodic task")
			task.Run(ctx)
			task.lastRun = now
		}
	}
}

func runProcessStep(ctx context.Context, cfg Config, logger *zerolog.Logger) error {
	if cfg.Process == nil {
		return nil
	}

	err := safeProcess(ctx, cfg.Process)
	if err == nil {
		return nil
	}

	if cfg.OnError != nil {
		if !cfg.OnError(err) {
			return err
		}

		return nil
	}

	logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("process error")

	return nil
}

// safeProcess turns a panic in fn into an error so one bad iteration cannot stop the loop.
func safeProcess(ctx context.Context, fn ProcessFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProcessPanicked, r)
		}
	}()

	return fn(ctx)
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
