package load

import (
	"sync/atomic"
)

// Payload is one unit of deferred work bound to a destination resource.
//
// Exactly one of Load and Discard is called, once. Load runs during a
// drain, on the goroutine that owns the target. Discard runs when every
// handle is released before a drain applied the payload; it must not touch
// the target.
type Payload[T any] interface {
	Load(target T) error
	Discard()
}

// shared is the state common to every handle of one payload.
type shared[T any] struct {
	payload Payload[T]
	refs    atomic.Int32
	queued  atomic.Bool
	settled atomic.Bool
}

// settle runs f at most once over the lifetime of the payload.
func (s *shared[T]) settle(f func()) bool {
	if !s.settled.CompareAndSwap(false, true) {
		return false
	}
	f()
	return true
}

// Pending is a handle to a payload awaiting upload.
//
// The zero value and the nil pointer are empty handles: every method is a
// no-op and RefCount reports 0.
type Pending[T any] struct {
	s *shared[T]
}

// NewPending wraps payload in a new handle with a reference count of 1.
func NewPending[T any](payload Payload[T]) *Pending[T] {
	s := &shared[T]{payload: payload}
	s.refs.Store(1)
	return &Pending[T]{s: s}
}

// Clone returns a new handle to the same payload and increments the
// reference count. Cloning an empty handle returns an empty handle.
func (p *Pending[T]) Clone() *Pending[T] {
	if p.Empty() {
		return &Pending[T]{}
	}
	p.s.refs.Add(1)
	return &Pending[T]{s: p.s}
}

// Take moves p into a new handle without changing the reference count.
// p becomes empty.
func (p *Pending[T]) Take() *Pending[T] {
	if p == nil {
		return &Pending[T]{}
	}
	out := &Pending[T]{s: p.s}
	p.s = nil
	return out
}

// Release drops this handle's reference and empties it. When the last
// reference goes away before the payload was loaded, the payload is
// discarded. Releasing an empty handle does nothing.
func (p *Pending[T]) Release() {
	if p.Empty() {
		return
	}
	s := p.s
	p.s = nil
	if s.refs.Add(-1) == 0 {
		s.settle(s.payload.Discard)
	}
}

// RefCount returns the number of live handles sharing the payload, or 0
// for an empty handle.
func (p *Pending[T]) RefCount() int {
	if p.Empty() {
		return 0
	}
	return int(p.s.refs.Load())
}

// Empty reports whether p refers to no payload.
func (p *Pending[T]) Empty() bool {
	return p == nil || p.s == nil
}

// Queued reports whether the payload has been pushed to a queue.
func (p *Pending[T]) Queued() bool {
	return !p.Empty() && p.s.queued.Load()
}

// Settled reports whether the payload has been loaded or discarded.
func (p *Pending[T]) Settled() bool {
	return !p.Empty() && p.s.settled.Load()
}

// Payload returns the wrapped payload, or nil for an empty handle.
func (p *Pending[T]) Payload() Payload[T] {
	if p.Empty() {
		return nil
	}
	return p.s.payload
}

// markQueued sets the one-shot queued flag. It reports false if the flag
// was already set.
func (p *Pending[T]) markQueued() bool {
	return p.s.queued.CompareAndSwap(false, true)
}

// load applies the payload to target unless it was already settled.
func (p *Pending[T]) load(target T) (loaded bool, err error) {
	loaded = p.s.settle(func() {
		err = p.s.payload.Load(target)
	})
	return loaded, err
}
