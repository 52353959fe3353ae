package load

import (
	"errors"
	"sync"

	"github.com/gogpu/g3d"
)

// DrainStats reports what one Drain did with the pendings it took.
type DrainStats struct {
	Uploaded  int // loaded into the target
	Discarded int // dropped because nothing but the queue referenced them
	Failed    int // Load returned an error
}

// Total returns the number of pendings processed.
func (s DrainStats) Total() int {
	return s.Uploaded + s.Discarded + s.Failed
}

// DrainOption configures a call to Drain.
type DrainOption func(*drainOptions)

type drainOptions struct {
	progress func(done, total int)
}

// WithProgress registers a callback invoked after each pending is
// processed.
func WithProgress(fn func(done, total int)) DrainOption {
	return func(o *drainOptions) {
		o.progress = fn
	}
}

// Queue is a FIFO of pendings waiting for a target.
//
// Push is safe for concurrent use. Drain must be called from the goroutine
// that owns the target.
type Queue[T any] struct {
	mu    sync.Mutex
	items []*Pending[T]
}

// NewQueue returns an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push enqueues p. It is a no-op returning false when p is empty or its
// payload has already been pushed (by p or any of its clones). Otherwise
// the queue keeps its own reference to the payload.
func (q *Queue[T]) Push(p *Pending[T]) bool {
	if p.Empty() || !p.markQueued() {
		return false
	}
	ref := p.Clone()

	q.mu.Lock()
	q.items = append(q.items, ref)
	n := len(q.items)
	q.mu.Unlock()

	g3d.Logger().Debug("load: pending queued", "queued", n, "refs", ref.RefCount())
	return true
}

// Len returns the number of queued pendings.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain processes every queued pending in push order and empties the queue.
//
// A pending referenced by nothing but the queue is discarded without
// touching target. Every other pending is loaded into target. Load errors
// do not stop the drain; they are counted and returned joined. Pendings
// pushed while Drain runs stay queued for the next call.
func (q *Queue[T]) Drain(target T, opts ...DrainOption) (DrainStats, error) {
	var o drainOptions
	for _, opt := range opts {
		opt(&o)
	}

	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	var (
		stats DrainStats
		errs  []error
	)
	log := g3d.Logger()
	for i, p := range items {
		switch {
		case p.RefCount() == 1:
			p.Release()
			stats.Discarded++
		default:
			loaded, err := p.load(target)
			switch {
			case err != nil:
				stats.Failed++
				errs = append(errs, err)
				log.Warn("load: upload failed", "error", err)
			case loaded:
				stats.Uploaded++
			default:
				stats.Discarded++
			}
			p.Release()
		}
		if o.progress != nil {
			o.progress(i+1, len(items))
		}
	}

	if len(items) > 0 {
		log.Debug("load: queue drained",
			"uploaded", stats.Uploaded,
			"discarded", stats.Discarded,
			"failed", stats.Failed)
	}
	return stats, errors.Join(errs...)
}

// Clear releases the queue's reference to every pending without loading
// any of them. Payloads with no other owner are discarded.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, p := range items {
		p.Release()
	}
	return len(items)
}
