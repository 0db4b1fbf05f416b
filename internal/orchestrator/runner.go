package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/observability"
)

// runner drives one task. At most one fetch per runner is in flight.
type runner struct {
	task    RefreshTask
	logger  *logrus.Entry
	metrics *observability.Metrics
	fetches *sync.WaitGroup

	inFlight atomic.Bool

	mu    sync.Mutex
	stats TaskStats
}

// loop ticks immediately, then every Interval until ctx is done.
func (r *runner) loop(ctx context.Context) {
	r.tick(ctx)

	ticker := time.NewTicker(r.task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("refresh task stopping")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick starts a fetch unless one is already running.
// Returns false when the tick was skipped.
func (r *runner) tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		r.mu.Lock()
		r.stats.Skips++
		r.mu.Unlock()
		r.metrics.RecordSkip(r.task.Name)
		r.logger.Debug("previous fetch still running, skipping tick")
		return false
	}

	r.fetches.Add(1)
	go r.run(ctx)
	return true
}

// run performs one fetch/apply cycle.
func (r *runner) run(ctx context.Context) {
	start := time.Now()
	defer func() {
		r.inFlight.Store(false)
		r.fetches.Done()
	}()
	defer func() {
		if p := recover(); p != nil {
			err := &FetchError{Task: r.task.Name, Err: fmt.Errorf("panic: %v", p)}
			r.recordFailure(err, time.Since(start))
		}
	}()

	v, err := r.task.fetch(ctx)
	if err != nil {
		r.recordFailure(&FetchError{Task: r.task.Name, Err: err}, time.Since(start))
		return
	}

	applyErr := r.task.apply(ctx, v)
	r.recordSuccess(time.Since(start), applyErr)
}

func (r *runner) recordFailure(err error, d time.Duration) {
	r.mu.Lock()
	r.stats.Runs++
	r.stats.Failures++
	r.stats.LastError = err
	r.mu.Unlock()

	r.metrics.RecordRefresh(r.task.Name, d, err)
	r.logger.WithError(err).WithField("duration", d).Warn("refresh failed, keeping previous state")
}

func (r *runner) recordSuccess(d time.Duration, applyErr error) {
	r.mu.Lock()
	r.stats.Runs++
	r.stats.Successes++
	r.stats.LastSuccess = time.Now()
	if applyErr != nil {
		r.stats.ApplyErrors++
		r.stats.LastError = applyErr
	}
	r.mu.Unlock()

	r.metrics.RecordRefresh(r.task.Name, d, nil)
	if applyErr != nil {
		r.metrics.RecordApplyError(r.task.Name)
		r.logger.WithError(applyErr).Warn("refresh applied with errors")
		return
	}
	r.logger.WithField("duration", d).Debug("refresh succeeded")
}

func (r *runner) snapshot() TaskStats {
	r.mu.Lock()
	s := r.stats
	r.mu.Unlock()

	s.Name = r.task.Name
	s.Interval = r.task.Interval
	s.InFlight = r.inFlight.Load()
	return s
}
