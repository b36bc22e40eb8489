package dispatch

import (
	"github.com/ringcast/go-dispatch/pkg/dispatch/metrics"
	"github.com/ringcast/go-dispatch/pkg/dispatch/types"
)

// Option configures optional collaborators on a Dispatcher at construction
// time. Neither collaborator is required: a Dispatcher built with no
// options gets a DefaultLogger and a NoopRecorder.
type Option func(*options)

type options struct {
	logger   types.Logger
	recorder metrics.Recorder
}

// WithLogger injects a Logger. Passing nil is a no-op (the default is
// kept).
func WithLogger(l types.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder injects a Recorder. Passing nil is a no-op (the default is
// kept).
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}
