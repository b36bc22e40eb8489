package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ringcast/go-dispatch/pkg/dispatch"
)

func newSerialized(t *testing.T, handler dispatch.Handler[Source, Message], cfg dispatch.Config) *dispatch.Serialized[Source, Message] {
	t.Helper()
	d, err := dispatch.NewDispatcher[Source, Message](handler, cfg)
	if err != nil {
		t.Fatalf("construct dispatcher: %v", err)
	}
	return d
}

// Round-robin fairness across three sources, driven entirely through the
// public Serialized API and the recording handler.
func TestDispatch_RoundRobinAcrossSources(t *testing.T) {
	handler, log := RecordingHandler()
	d := newSerialized(t, handler, dispatch.Config{MaxSourceQueueSize: 2, GiveUpAfterSkipped: 2, DropSourceAfterRetries: 1})
	ctx := context.Background()

	submits := []Call{
		{Source: "A", Message: Message{Label: "a", Seq: 1}},
		{Source: "B", Message: Message{Label: "b", Seq: 1}},
		{Source: "C", Message: Message{Label: "c", Seq: 1}},
		{Source: "A", Message: Message{Label: "a", Seq: 2}},
		{Source: "B", Message: Message{Label: "b", Seq: 2}},
		{Source: "C", Message: Message{Label: "c", Seq: 2}},
	}
	for _, c := range submits {
		if err := d.Dispatch(ctx, c.Source, c.Message); err != nil {
			t.Fatalf("dispatch %+v: %v", c, err)
		}
	}

	got := log.Snapshot()
	if len(got) != len(submits) {
		t.Fatalf("got %d calls, want %d: %+v", len(got), len(submits), got)
	}
	for i := range submits {
		if got[i] != submits[i] {
			t.Errorf("call %d = %+v, want %+v", i, got[i], submits[i])
		}
	}

	stats := d.Stats()
	if len(stats.Ring) != 3 {
		t.Errorf("ring = %v, want 3 sources", stats.Ring)
	}
	for s, depth := range stats.QueueDepths {
		if depth != 0 {
			t.Errorf("queue[%v] has depth %d, want 0", s, depth)
		}
	}
}

// Intra-source ordering is preserved even when a source's messages are
// interleaved with arrivals from elsewhere.
func TestDispatch_IntraSourceFIFOPreserved(t *testing.T) {
	handler, log := RecordingHandler()
	d := newSerialized(t, handler, dispatch.Config{MaxSourceQueueSize: 8, GiveUpAfterSkipped: 100, DropSourceAfterRetries: 100})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := d.Dispatch(ctx, "A", Message{Label: "a", Seq: i}); err != nil {
			t.Fatalf("dispatch a%d: %v", i, err)
		}
	}
	if err := d.Dispatch(ctx, "B", Message{Label: "b", Seq: 1}); err != nil {
		t.Fatalf("dispatch b1: %v", err)
	}

	var aSeqs []int
	for _, c := range log.Snapshot() {
		if c.Source == "A" {
			aSeqs = append(aSeqs, c.Message.Seq)
		}
	}
	for i := 1; i < len(aSeqs); i++ {
		if aSeqs[i] < aSeqs[i-1] {
			t.Fatalf("source A delivered out of order: %v", aSeqs)
		}
	}
}

// A source whose queue is already at capacity silently drops further
// arrivals rather than surfacing an error to the caller. B is kept at
// the ring head throughout so A's messages stay queued instead of
// draining immediately.
func TestDispatch_OverflowDoesNotErrorTheCaller(t *testing.T) {
	handler, log := RecordingHandler()
	d := newSerialized(t, handler, dispatch.Config{MaxSourceQueueSize: 1, GiveUpAfterSkipped: 100, DropSourceAfterRetries: 100})
	ctx := context.Background()

	if err := d.Dispatch(ctx, "B", Message{Label: "b", Seq: 0}); err != nil {
		t.Fatalf("dispatch b0: %v", err)
	}
	if err := d.Dispatch(ctx, "A", Message{Label: "a", Seq: 1}); err != nil {
		t.Fatalf("dispatch a1: %v", err)
	}
	if err := d.Dispatch(ctx, "A", Message{Label: "a", Seq: 2}); err != nil {
		t.Fatalf("dispatch a2: %v", err)
	}

	if n := log.Len(); n != 1 {
		t.Fatalf("got %d handler calls so far, want 1 (only b0)", n)
	}

	stats := d.Stats()
	if depth := stats.QueueDepths["A"]; depth != 1 {
		t.Fatalf("queue[A] depth = %d, want 1 (a1 held, a2 overflowed)", depth)
	}

	// Rotate B out of the way so A becomes head and its one surviving
	// message drains.
	if err := d.Dispatch(ctx, "B", Message{Label: "b", Seq: 1}); err != nil {
		t.Fatalf("dispatch b1: %v", err)
	}

	var aSeqs []int
	for _, c := range log.Snapshot() {
		if c.Source == "A" {
			aSeqs = append(aSeqs, c.Message.Seq)
		}
	}
	if len(aSeqs) != 1 || aSeqs[0] != 1 {
		t.Errorf("A delivered %v, want exactly [1] (a2 should have overflowed and never been delivered)", aSeqs)
	}
}

// Serialized forces every Dispatch call through a single critical
// section: a second call started while the first is still inside the
// handler must not observe any effect of the first until it is
// released.
func TestSerialized_DispatchCallsDoNotInterleave(t *testing.T) {
	release := make(chan struct{})
	handler, log := BlockingHandler(release)
	d := newSerialized(t, handler, dispatch.Config{MaxSourceQueueSize: 2, GiveUpAfterSkipped: 2, DropSourceAfterRetries: 1})

	firstDone := make(chan error, 1)
	go func() { firstDone <- d.Dispatch(context.Background(), "A", Message{Label: "a", Seq: 1}) }()

	select {
	case <-firstDone:
		t.Fatal("first dispatch returned before being released")
	case <-time.After(50 * time.Millisecond):
	}

	secondDone := make(chan error, 1)
	go func() { secondDone <- d.Dispatch(context.Background(), "B", Message{Label: "b", Seq: 1}) }()

	select {
	case <-secondDone:
		t.Fatal("second dispatch completed while the first still held the critical section")
	case <-time.After(50 * time.Millisecond):
	}
	if n := log.Len(); n != 1 {
		t.Fatalf("got %d handler calls before release, want 1", n)
	}

	close(release)

	for i, done := range []chan error{firstDone, secondDone} {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("dispatch %d: %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("dispatch %d never completed after release", i)
		}
	}

	// B arrived while A was still the ring head and A's queue was already
	// empty by then, so B's arrival only counted as a mismatch. Its
	// message is queued, not yet handed to the handler.
	if n := log.Len(); n != 1 {
		t.Fatalf("got %d handler calls after release, want 1 (B's message is still queued)", n)
	}
	if depth := d.Stats().QueueDepths["B"]; depth != 1 {
		t.Fatalf("queue[B] depth = %d, want 1", depth)
	}
}

// A handler returning an error still consumes the message: the next
// submission from the same source is not blocked behind it.
func TestDispatch_HandlerErrorIsConsumedNotRetried(t *testing.T) {
	boom := errors.New("boom")
	handler, log := FailNTimes(1, boom)
	d := newSerialized(t, handler, dispatch.Config{MaxSourceQueueSize: 2, GiveUpAfterSkipped: 2, DropSourceAfterRetries: 1})
	ctx := context.Background()

	if err := d.Dispatch(ctx, "A", Message{Label: "a", Seq: 1}); err != nil {
		t.Fatalf("dispatch a1: %v", err)
	}
	if err := d.Dispatch(ctx, "A", Message{Label: "a", Seq: 2}); err != nil {
		t.Fatalf("dispatch a2: %v", err)
	}

	got := log.Snapshot()
	if len(got) != 2 {
		t.Fatalf("got %d calls, want 2: %+v", len(got), got)
	}

	stats := d.Stats()
	if depth := stats.QueueDepths["A"]; depth != 0 {
		t.Errorf("queue[A] depth = %d, want 0 (both messages consumed)", depth)
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	bad := dispatch.Config{MaxSourceQueueSize: 0, GiveUpAfterSkipped: 1, DropSourceAfterRetries: 1}
	err := bad.Validate()
	var cfgErr *dispatch.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if cfgErr.Field != dispatch.FieldMaxSourceQueueSize {
		t.Errorf("Field = %v, want %v", cfgErr.Field, dispatch.FieldMaxSourceQueueSize)
	}
}
