// Package dispatch implements a fair round-robin packet dispatcher: it
// delivers inbound messages from many sources to a single handler,
// isolating each source's backlog, evicting sources that make no
// progress, and serializing handler invocations when wrapped by
// Serialized.
package dispatch

import (
	"context"

	"github.com/ringcast/go-dispatch/pkg/dispatch/definition"
	"github.com/ringcast/go-dispatch/pkg/dispatch/metrics"
	"github.com/ringcast/go-dispatch/pkg/dispatch/types"
)

// Dispatcher is the unsynchronized dispatch core. Its state transitions
// assume a single logical caller at a time; it is not safe to call
// Dispatch concurrently on the same Dispatcher. Use NewDispatcher, which
// returns a Serialized wrapper, for any setting with concurrent
// producers. This type is exported only so tests and the wrapper itself
// can construct it directly.
type Dispatcher[S comparable, M any] struct {
	cfg     Config
	handler Handler[S, M]
	log     types.Logger
	rec     metrics.Recorder

	ring    *schedulingRing[S]
	queues  map[S]*sourceQueue[M]
	retries map[S]int
	skipped int
}

// NewUnsynchronizedDispatcher builds the dispatch core directly. It is a
// building block, not a safe API for concurrent callers. Use NewDispatcher
// for the serialized constructor almost every caller wants.
func NewUnsynchronizedDispatcher[S comparable, M any](handler Handler[S, M], cfg Config, opts ...Option) (*Dispatcher[S, M], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{
		logger:   definition.NewDefaultLogger(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Dispatcher[S, M]{
		cfg:     cfg,
		handler: handler,
		log:     o.logger,
		rec:     o.recorder,
		ring:    newSchedulingRing[S](),
		queues:  make(map[S]*sourceQueue[M]),
		retries: make(map[S]int),
	}, nil
}

// Dispatch admits one message from source, then drains as much of the
// scheduling ring as the resulting state allows. It returns once the
// dispatcher has quiesced the work triggered by this call: zero or more
// handler invocations, zero or more rotations, and possibly the eviction
// of some source, not necessarily the caller's own source.
//
// The returned error is always nil. Queue overflow, giving up on a
// source, evicting a source, and handler failure are internal bookkeeping
// and are never surfaced to the submitter. The dispatcher has no
// cancellation surface of its own; ctx is threaded through only so the
// handler can observe cancellation or a deadline, and Dispatch itself
// never consults it.
func (d *Dispatcher[S, M]) Dispatch(ctx context.Context, source S, message M) error {
	d.ensureSource(source)
	d.enqueueMessage(source, message)
	return d.drain(ctx, source)
}

// ensureSource registers source in the ring and gives it an empty queue
// and a zero retry count, unless it is already known.
func (d *Dispatcher[S, M]) ensureSource(source S) {
	if _, known := d.queues[source]; known {
		return
	}
	d.ring.pushTail(source)
	d.queues[source] = newSourceQueue[M](d.cfg.MaxSourceQueueSize)
	d.retries[source] = 0
}

// enqueueMessage appends message to source's queue. A full queue drops
// the message silently. The retry counter is reset only when the message
// is actually accepted, not on an overflow, so it keeps its meaning as
// "turns passed without accepted input."
func (d *Dispatcher[S, M]) enqueueMessage(source S, message M) {
	q := d.queues[source]
	if q.full() {
		return
	}
	q.pushBack(message)
	d.retries[source] = 0
}

// drain is the entry point to the dispatch loop for one incoming message.
// If source is not the current ring head, the arrival counts as a skip,
// and while the skip count is below GiveUpAfterSkipped nothing else
// happens. Once it reaches the threshold the head gives up its turn. When
// source is the head, or after a give-up, the ring is walked forward by
// handleNext.
func (d *Dispatcher[S, M]) drain(ctx context.Context, source S) error {
	h, ok := d.ring.head()
	if !ok {
		return nil
	}

	if h != source {
		d.skipped++
		d.rec.IncSkipped()
		if d.skipped < d.cfg.GiveUpAfterSkipped {
			return nil
		}
		d.giveUp(h)
	}

	return d.handleNext(ctx)
}

// handleNext recomputes the ring head fresh on every iteration, so a
// single call can serve several distinct sources in round-robin order.
// It stops as soon as the current head's queue is empty.
func (d *Dispatcher[S, M]) handleNext(ctx context.Context) error {
	for {
		h, ok := d.ring.head()
		if !ok {
			return nil
		}

		q := d.queues[h]
		m, ok := q.popFront()
		if !ok {
			return nil
		}

		if err := d.handler(ctx, h, m); err != nil {
			d.log.Errorf("handler failed for source %v: %v", h, err)
			d.rec.IncHandlerFailure()
		}
		d.success(h)
	}
}

// giveUp abandons the current turn for s: its retry count goes up, and it
// is either rotated to the back of the ring for another chance or evicted
// once it has used up its retries. The decision to rotate or drop never
// looks at s's queue state.
func (d *Dispatcher[S, M]) giveUp(s S) {
	d.skipped = 0
	d.retries[s]++
	d.rec.IncGiveUp()

	if d.retries[s] > d.cfg.DropSourceAfterRetries {
		d.drop(s)
		return
	}
	d.ring.rotate(s)
}

// success rotates s to the back of the ring after it has been served. Its
// retry count is left untouched here; it is reset only by an accepted
// enqueue, so it keeps counting turns without input rather than turns
// without success.
func (d *Dispatcher[S, M]) success(s S) {
	d.skipped = 0
	d.ring.rotate(s)
	d.log.Debugf("served source %v", s)
	d.rec.ObserveRingSize(d.ring.len())
	if q, ok := d.queues[s]; ok {
		d.rec.ObserveQueueDepth(q.len())
	}
}

// drop evicts s from the ring along with its queue and retry count. Any
// messages still queued for s are lost.
func (d *Dispatcher[S, M]) drop(s S) {
	d.log.Warnf("dropping source %v after %d retries", s, d.retries[s])
	d.ring.drop(s)
	delete(d.queues, s)
	delete(d.retries, s)
	d.rec.IncDrop()
	d.rec.ObserveRingSize(d.ring.len())
}

// Stats is a read-only, non-mutating snapshot of the dispatcher's
// internal state: a consistent read path kept separate from the
// mutating one, never exposing the live ring or queue maps themselves to
// callers.
type Stats[S comparable] struct {
	Ring        []S
	QueueDepths map[S]int
	Retries     map[S]int
	Skipped     int
}

func (d *Dispatcher[S, M]) Stats() Stats[S] {
	depths := make(map[S]int, len(d.queues))
	for s, q := range d.queues {
		depths[s] = q.len()
	}
	retries := make(map[S]int, len(d.retries))
	for s, r := range d.retries {
		retries[s] = r
	}
	return Stats[S]{
		Ring:        d.ring.snapshot(),
		QueueDepths: depths,
		Retries:     retries,
		Skipped:     d.skipped,
	}
}
