// Package metrics provides the optional Recorder collaborator a Dispatcher
// reports its internal events to. Recording is always injected and never
// required: a Dispatcher constructed without a Recorder falls back to
// NoopRecorder.
package metrics

// Recorder observes Dispatcher internals for an operator. None of these
// calls are allowed to block or fail the dispatch they are reporting on.
type Recorder interface {
	// IncSkipped fires on every arrival that doesn't match the current
	// ring head.
	IncSkipped()

	// IncGiveUp fires whenever the dispatcher gives up the current head's
	// turn.
	IncGiveUp()

	// IncDrop fires whenever a source is evicted from the ring.
	IncDrop()

	// IncHandlerFailure fires whenever the handler returns an error, which
	// the dispatcher swallows.
	IncHandlerFailure()

	// ObserveRingSize reports the scheduling ring length after each served
	// message and after each source eviction.
	ObserveRingSize(size int)

	// ObserveQueueDepth reports the served source's queue depth after each
	// served message.
	ObserveQueueDepth(depth int)
}

// NoopRecorder discards every observation. It is the default Recorder.
type NoopRecorder struct{}

func (NoopRecorder) IncSkipped()           {}
func (NoopRecorder) IncGiveUp()            {}
func (NoopRecorder) IncDrop()              {}
func (NoopRecorder) IncHandlerFailure()    {}
func (NoopRecorder) ObserveRingSize(int)   {}
func (NoopRecorder) ObserveQueueDepth(int) {}

var _ Recorder = NoopRecorder{}
