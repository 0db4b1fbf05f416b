package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zilswap-dashboard/internal/observability"
)

func newTestRunner(task RefreshTask) *runner {
	return &runner{
		task:    task,
		logger:  observability.Discard(),
		fetches: &sync.WaitGroup{},
	}
}

func TestNewTask_Validation(t *testing.T) {
	fetch := func(context.Context) (int, error) { return 1, nil }
	apply := func(context.Context, int) error { return nil }

	tests := []struct {
		name  string
		tasks []RefreshTask
	}{
		{"empty name", []RefreshTask{NewTask("", time.Second, fetch, apply)}},
		{"zero interval", []RefreshTask{NewTask("price", 0, fetch, apply)}},
		{"negative interval", []RefreshTask{NewTask("price", -time.Second, fetch, apply)}},
		{"nil fetch", []RefreshTask{NewTask[int]("price", time.Second, nil, apply)}},
		{"nil apply", []RefreshTask{NewTask[int]("price", time.Second, fetch, nil)}},
		{"duplicate", []RefreshTask{
			NewTask("price", time.Second, fetch, apply),
			NewTask("price", time.Second, fetch, apply),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(Options{})
			err := o.Start(context.Background(), tt.tasks...)
			require.ErrorIs(t, err, ErrInvalidTask)
		})
	}
}

func TestOrchestrator_StartTwice(t *testing.T) {
	o := New(Options{})
	task := NewTask("price", time.Hour,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context, int) error { return nil })

	require.NoError(t, o.Start(context.Background(), task))
	defer o.Stop()

	assert.ErrorIs(t, o.Start(context.Background(), task), ErrAlreadyStarted)
}

func TestRunner_SkipsTickWhileFetchPending(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32

	task := NewTask("price", time.Hour,
		func(ctx context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 1, nil
		},
		func(context.Context, int) error { return nil })

	r := newTestRunner(task)
	ctx := context.Background()

	require.True(t, r.tick(ctx))
	assert.False(t, r.tick(ctx))
	assert.False(t, r.tick(ctx))

	close(release)
	r.fetches.Wait()

	assert.Equal(t, int32(1), calls.Load())
	stats := r.snapshot()
	assert.Equal(t, int64(2), stats.Skips)
	assert.Equal(t, int64(1), stats.Successes)
	assert.False(t, stats.InFlight)

	// Fetch finished, so the next tick runs.
	require.True(t, r.tick(ctx))
	r.fetches.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunner_FailureKeepsPreviousValue(t *testing.T) {
	var value atomic.Int64
	value.Store(7)
	fail := errors.New("upstream down")

	task := NewTask("stats", time.Hour,
		func(context.Context) (int64, error) { return 0, fail },
		func(_ context.Context, v int64) error {
			value.Store(v)
			return nil
		})

	r := newTestRunner(task)
	require.True(t, r.tick(context.Background()))
	r.fetches.Wait()

	assert.Equal(t, int64(7), value.Load())
	stats := r.snapshot()
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, int64(0), stats.Successes)

	var fe *FetchError
	require.ErrorAs(t, stats.LastError, &fe)
	assert.Equal(t, "stats", fe.Task)
	assert.ErrorIs(t, stats.LastError, fail)
}

func TestRunner_PanicIsRecovered(t *testing.T) {
	task := NewTask("zap", time.Hour,
		func(context.Context) (int, error) { panic("bad payload") },
		func(context.Context, int) error { return nil })

	r := newTestRunner(task)
	require.True(t, r.tick(context.Background()))
	r.fetches.Wait()

	stats := r.snapshot()
	assert.Equal(t, int64(1), stats.Failures)
	assert.Contains(t, stats.LastError.Error(), "panic: bad payload")
	assert.False(t, stats.InFlight)
}

func TestRunner_ApplyErrorCountsAsSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)

	task := NewTask("price", time.Hour,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context, int) error { return errors.New("history insert failed") })

	r := newTestRunner(task)
	r.metrics = m
	require.True(t, r.tick(context.Background()))
	r.fetches.Wait()

	stats := r.snapshot()
	assert.Equal(t, int64(1), stats.Successes)
	assert.Equal(t, int64(1), stats.ApplyErrors)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshApplyErrors.WithLabelValues("price")))
}

func TestRunner_CancelledContextDoesNotTick(t *testing.T) {
	var calls atomic.Int32
	task := NewTask("price", time.Hour,
		func(context.Context) (int, error) { calls.Add(1); return 1, nil },
		func(context.Context, int) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(task)
	assert.False(t, r.tick(ctx))
	assert.Zero(t, calls.Load())
}

func TestOrchestrator_FirstTickImmediate(t *testing.T) {
	done := make(chan struct{})
	var once sync.Once
	task := NewTask("price", time.Hour,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context, int) error {
			once.Do(func() { close(done) })
			return nil
		})

	o := New(Options{})
	require.NoError(t, o.Start(context.Background(), task))
	defer o.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not fire immediately")
	}
}

func TestOrchestrator_BlockedTaskDoesNotAffectSiblings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)

	var slowCalls, fastApplies atomic.Int32
	slow := NewTask("slow", 5*time.Millisecond,
		func(ctx context.Context) (int, error) {
			slowCalls.Add(1)
			<-ctx.Done()
			return 0, ctx.Err()
		},
		func(context.Context, int) error { return nil })
	failing := NewTask("failing", 5*time.Millisecond,
		func(context.Context) (int, error) { return 0, errors.New("nope") },
		func(context.Context, int) error { return nil })
	fast := NewTask("fast", 5*time.Millisecond,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context, int) error {
			fastApplies.Add(1)
			return nil
		})

	o := New(Options{Metrics: m})
	require.NoError(t, o.Start(context.Background(), slow, failing, fast))

	require.Eventually(t, func() bool { return fastApplies.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.RefreshSkipsTotal.WithLabelValues("slow")) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	o.Stop()

	assert.Equal(t, int32(1), slowCalls.Load())

	stats := o.Stats()
	require.Len(t, stats, 3)
	assert.Equal(t, "failing", stats[0].Name)
	assert.Positive(t, stats[0].Failures)
	assert.Equal(t, "fast", stats[1].Name)
	assert.Zero(t, stats[1].Failures)
	assert.Equal(t, "slow", stats[2].Name)
	assert.Positive(t, stats[2].Skips)
	assert.False(t, stats[2].InFlight)
}

func TestOrchestrator_StopBeforeStart(t *testing.T) {
	o := New(Options{})
	assert.NotPanics(t, o.Stop)
	assert.Empty(t, o.Stats())
}

func TestOrchestrator_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := NewTask("price", time.Millisecond,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context, int) error { return nil })

	o := New(Options{})
	require.NoError(t, o.Start(ctx, task))
	cancel()

	waited := make(chan struct{})
	go func() {
		o.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancel")
	}
}
