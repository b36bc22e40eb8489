// Package test provides the collaborators used by the dispatcher's
// acceptance tests: a concrete Source/Message pair and a handful of
// Handler implementations (recording, blocking, failing-then-succeeding).
package test

import (
	"context"
	"sync"

	"github.com/ringcast/go-dispatch/pkg/dispatch"
)

// Source is the concrete source identity used throughout the dispatcher's
// tests: a peer name.
type Source string

// Message is the concrete message used throughout the dispatcher's tests:
// a packet label plus a sequence number, so tests can assert both which
// source a call came from and the order within that source.
type Message struct {
	Label string
	Seq   int
}

// Call records one handler invocation.
type Call struct {
	Source  Source
	Message Message
}

// CallLog collects handler invocations in the order the handler observed
// them, safe for concurrent append.
type CallLog struct {
	mutex sync.Mutex
	calls []Call
}

func (c *CallLog) record(source Source, message Message) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.calls = append(c.calls, Call{Source: source, Message: message})
}

// Snapshot returns a copy of the calls observed so far.
func (c *CallLog) Snapshot() []Call {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Len returns the number of calls observed so far.
func (c *CallLog) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.calls)
}

// RecordingHandler returns a Handler that always succeeds and a CallLog of
// every invocation it received.
func RecordingHandler() (dispatch.Handler[Source, Message], *CallLog) {
	log := &CallLog{}
	h := func(_ context.Context, source Source, message Message) error {
		log.record(source, message)
		return nil
	}
	return h, log
}

// BlockingHandler returns a Handler that records the call, then blocks
// until release is closed. Used to pin the drain loop mid-flight.
func BlockingHandler(release <-chan struct{}) (dispatch.Handler[Source, Message], *CallLog) {
	log := &CallLog{}
	h := func(ctx context.Context, source Source, message Message) error {
		log.record(source, message)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	return h, log
}

// FailNTimes returns a Handler whose first n invocations (in total, across
// all sources) return err, and which succeeds thereafter.
func FailNTimes(n int, err error) (dispatch.Handler[Source, Message], *CallLog) {
	log := &CallLog{}
	var mutex sync.Mutex
	remaining := n
	h := func(_ context.Context, source Source, message Message) error {
		log.record(source, message)
		mutex.Lock()
		defer mutex.Unlock()
		if remaining > 0 {
			remaining--
			return err
		}
		return nil
	}
	return h, log
}
