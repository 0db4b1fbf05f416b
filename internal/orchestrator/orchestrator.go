// Package orchestrator runs refresh tasks as independent repeating processes.
// Each task polls its source on a fixed interval and applies results to the
// state slice it owns. A tick that fires while the previous fetch of the same
// task is still running is skipped, never queued.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/observability"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("orchestrator already started")
	// ErrInvalidTask is returned when a task has no name, a duplicate name or a non-positive interval.
	ErrInvalidTask = errors.New("invalid refresh task")
)

// FetchError wraps a failure of a task's fetch function.
// It is logged and counted; the task's previous state is kept.
type FetchError struct {
	Task string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Task, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RefreshTask is a named fetch/apply pair polled on Interval.
// Build one with NewTask.
type RefreshTask struct {
	Name     string
	Interval time.Duration

	fetch func(ctx context.Context) (any, error)
	apply func(ctx context.Context, v any) error
}

// NewTask builds a RefreshTask. fetch talks to the external source; apply
// merges a successful result into the task's state slice and is not called
// when fetch fails.
func NewTask[T any](name string, interval time.Duration, fetch func(context.Context) (T, error), apply func(context.Context, T) error) RefreshTask {
	t := RefreshTask{Name: name, Interval: interval}
	if fetch != nil {
		t.fetch = func(ctx context.Context) (any, error) { return fetch(ctx) }
	}
	if apply != nil {
		t.apply = func(ctx context.Context, v any) error { return apply(ctx, v.(T)) }
	}
	return t
}

// TaskStats is a point-in-time view of one task.
type TaskStats struct {
	Name        string
	Interval    time.Duration
	Runs        int64 // completed fetches
	Successes   int64
	Failures    int64
	Skips       int64 // ticks skipped while a fetch was in flight
	ApplyErrors int64
	InFlight    bool
	LastSuccess time.Time
	LastError   error
}

// Options for creating Orchestrator.
type Options struct {
	Logger  *logrus.Entry          // default: discard
	Metrics *observability.Metrics // optional
}

// Orchestrator owns the task runners and their lifecycle.
type Orchestrator struct {
	logger  *logrus.Entry
	metrics *observability.Metrics

	mu      sync.Mutex
	started bool
	runners []*runner
	cancel  context.CancelFunc
	loops   sync.WaitGroup
	fetches sync.WaitGroup
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	return &Orchestrator{
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Start validates tasks and launches one loop per task. The first tick of
// every task fires immediately. Tasks run until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context, tasks ...RefreshTask) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return ErrAlreadyStarted
	}
	if err := validate(tasks); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.started = true

	for _, task := range tasks {
		r := &runner{
			task:    task,
			logger:  o.logger.WithField("task", task.Name),
			metrics: o.metrics,
			fetches: &o.fetches,
		}
		o.runners = append(o.runners, r)

		o.loops.Add(1)
		go func() {
			defer o.loops.Done()
			r.loop(runCtx)
		}()
	}

	o.logger.WithField("tasks", len(tasks)).Info("orchestrator started")
	return nil
}

// Stop cancels all tasks and waits for in-flight fetches to return.
// Safe to call more than once and before Start.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.Wait()
}

// Wait blocks until every task loop and in-flight fetch has finished.
func (o *Orchestrator) Wait() {
	o.loops.Wait()
	o.fetches.Wait()
}

// Stats returns per-task statistics sorted by task name.
func (o *Orchestrator) Stats() []TaskStats {
	o.mu.Lock()
	runners := make([]*runner, len(o.runners))
	copy(runners, o.runners)
	o.mu.Unlock()

	out := make([]TaskStats, 0, len(runners))
	for _, r := range runners {
		out = append(out, r.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func validate(tasks []RefreshTask) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t.Name == "" {
			return fmt.Errorf("%w: task %d has no name", ErrInvalidTask, i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidTask, t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Interval <= 0 {
			return fmt.Errorf("%w: %s: interval must be positive, got %v", ErrInvalidTask, t.Name, t.Interval)
		}
		if t.fetch == nil || t.apply == nil {
			return fmt.Errorf("%w: %s: fetch and apply are required", ErrInvalidTask, t.Name)
		}
	}
	return nil
}
