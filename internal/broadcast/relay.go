package broadcast

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/observability"
	"zilswap-dashboard/internal/state"
)

// RelayOptions configures a Relay.
type RelayOptions struct {
	Store      *state.Store
	Publishers []Publisher
	Logger     *logrus.Entry
	Metrics    *observability.Metrics
}

// Relay publishes the latest value of each changed slice.
// Updates arriving between flushes are coalesced per slice, so a slow
// publisher never blocks the goroutine that mutated the store.
type Relay struct {
	store      *state.Store
	publishers []Publisher
	logger     *logrus.Entry
	metrics    *observability.Metrics

	mu      sync.Mutex
	pending map[state.Slice]struct{}
	notify  chan struct{}
}

// NewRelay creates a relay and subscribes it to the store.
func NewRelay(opts RelayOptions) *Relay {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Relay{
		store:      opts.Store,
		publishers: opts.Publishers,
		logger:     logger,
		metrics:    opts.Metrics,
		pending:    make(map[state.Slice]struct{}),
		notify:     make(chan struct{}, 1),
	}
	opts.Store.Subscribe(r.onUpdate)
	return r
}

func (r *Relay) onUpdate(u state.Update) {
	r.metrics.RecordSliceUpdate(string(u.Slice))

	r.mu.Lock()
	r.pending[u.Slice] = struct{}{}
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// SnapshotMessages encodes every slice of the current state.
func (r *Relay) SnapshotMessages() [][]byte {
	snap := r.store.Snapshot()
	msgs := make([][]byte, 0, len(state.AllSlices))
	for _, slice := range state.AllSlices {
		msg, err := Encode(snap, slice)
		if err != nil {
			r.logger.WithError(err).WithField("slice", slice).Error("encode slice")
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// Run publishes pending slices until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
			r.flush(ctx)
		}
	}
}

func (r *Relay) flush(ctx context.Context) {
	r.mu.Lock()
	slices := make([]state.Slice, 0, len(r.pending))
	for _, s := range state.AllSlices {
		if _, ok := r.pending[s]; ok {
			slices = append(slices, s)
		}
	}
	r.pending = make(map[state.Slice]struct{})
	r.mu.Unlock()

	if len(slices) == 0 {
		return
	}

	snap := r.store.Snapshot()
	r.metrics.SetStateSizes(len(snap.Token.Tokens), len(snap.Bridge.Mappings))

	for _, slice := range slices {
		msg, err := Encode(snap, slice)
		if err != nil {
			r.logger.WithError(err).WithField("slice", slice).Error("encode slice")
			continue
		}
		channel := string(slice)
		for _, p := range r.publishers {
			err := p.Publish(ctx, channel, msg)
			r.metrics.RecordPublish(p.Name(), channel, err)
			if err != nil {
				r.logger.WithFields(logrus.Fields{
					"publisher": p.Name(),
					"channel":   channel,
				}).WithError(err).Warn("publish failed")
			}
		}
	}
}
