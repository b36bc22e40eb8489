package dispatch

import (
	"context"
	"sync"
)

// Serialized wraps a Dispatcher in a mutual-exclusion primitive so that at
// most one Dispatch call is in its critical section at a time. The
// critical section is the entire Dispatch operation, including every
// handler invocation spawned by the drain loop. This is the mode used
// when the application handler is not itself concurrency-safe, and the
// only supported way to share a dispatcher across concurrent producers.
//
// Fairness of mutex acquisition is not specified and not guaranteed;
// callers must tolerate arbitrary wait times under contention.
type Serialized[S comparable, M any] struct {
	mutex *sync.Mutex
	inner *Dispatcher[S, M]
}

// NewDispatcher is the constructor almost every caller wants: it builds an
// unsynchronized Dispatcher and wraps it for safe concurrent use.
func NewDispatcher[S comparable, M any](handler Handler[S, M], cfg Config, opts ...Option) (*Serialized[S, M], error) {
	inner, err := NewUnsynchronizedDispatcher(handler, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Serialized[S, M]{
		mutex: &sync.Mutex{},
		inner: inner,
	}, nil
}

// Dispatch acquires the lock, runs the wrapped Dispatcher's Dispatch to
// completion, and releases the lock on every exit path.
func (s *Serialized[S, M]) Dispatch(ctx context.Context, source S, message M) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.inner.Dispatch(ctx, source, message)
}

// Stats takes the same lock as Dispatch, so the snapshot it returns is
// consistent with respect to concurrent callers.
func (s *Serialized[S, M]) Stats() Stats[S] {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.inner.Stats()
}
