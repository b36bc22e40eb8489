package dispatch

import "container/list"

// schedulingRing is the ordered sequence of known sources: every source
// with a queue entry appears exactly once here, and vice versa. It is
// backed by container/list so that drop-by-value and rotate are both
// O(1), with a side index for O(1) lookup of a source's element on
// arrival.
type schedulingRing[S comparable] struct {
	order *list.List
	index map[S]*list.Element
}

func newSchedulingRing[S comparable]() *schedulingRing[S] {
	return &schedulingRing[S]{
		order: list.New(),
		index: make(map[S]*list.Element),
	}
}

func (r *schedulingRing[S]) len() int {
	return r.order.Len()
}

func (r *schedulingRing[S]) contains(s S) bool {
	_, ok := r.index[s]
	return ok
}

// pushTail appends a new source. The caller must ensure s is not already
// present.
func (r *schedulingRing[S]) pushTail(s S) {
	r.index[s] = r.order.PushBack(s)
}

// head returns the current ring head and true, or the zero value and false
// if the ring is empty.
func (r *schedulingRing[S]) head() (S, bool) {
	front := r.order.Front()
	if front == nil {
		var zero S
		return zero, false
	}
	return front.Value.(S), true
}

// rotate moves s from wherever it is to the ring tail. When s is the sole
// element, rotating it has no observable effect.
func (r *schedulingRing[S]) rotate(s S) {
	elem, ok := r.index[s]
	if !ok {
		return
	}
	r.order.MoveToBack(elem)
}

// drop permanently removes s from the ring.
func (r *schedulingRing[S]) drop(s S) {
	elem, ok := r.index[s]
	if !ok {
		return
	}
	r.order.Remove(elem)
	delete(r.index, s)
}

// snapshot returns the ring order as a plain slice, head first. Used only
// by the read-only Stats path.
func (r *schedulingRing[S]) snapshot() []S {
	out := make([]S, 0, r.order.Len())
	for e := r.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(S))
	}
	return out
}
