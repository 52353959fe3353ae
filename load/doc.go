// Package load defers GPU-touching work until a rendering context is
// current.
//
// A [Pending] is a reference-counted handle to one unit of deferred work (a
// [Payload]) bound to its destination resource. Handles can be cloned,
// moved and released from any goroutine. A [Queue] collects pendings and
// applies them, in push order, when it is drained against the live target.
//
// Cancellation is free: a pending whose only remaining reference is the
// queue's own is discarded at drain time without being uploaded, and a
// pending whose last handle is released before it is ever pushed is
// discarded immediately.
package load
