// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/load"
)

// Context errors.
var (
	// ErrNotCurrent is returned by Flush when no device is current.
	ErrNotCurrent = errors.New("render: context is not current")

	// ErrContextClosed is returned by operations on a closed context.
	ErrContextClosed = errors.New("render: context is closed")
)

var lastContextID atomic.Uint64

// Context collects the GPU work of one rendering context: the queue of
// pending uploads, the geometry cache and the device that is current, if
// any.
//
// Uploads can be queued at any time from any goroutine. They reach the GPU
// only when Flush runs while a device is current, on the goroutine that
// owns that device.
type Context struct {
	id    ContextID
	queue *load.Queue[Device]
	cache *GeometryCache

	mu     sync.Mutex
	device Device
	closed bool
}

// Ensure Context implements io.Closer
var _ io.Closer = (*Context)(nil)

// NewContext creates a context with a fresh ID.
func NewContext(opts ...Option) (*Context, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		id:     ContextID(lastContextID.Add(1)),
		queue:  load.NewQueue[Device](),
		cache:  o.cache,
		device: o.device,
	}
	if c.cache == nil {
		c.cache = NewGeometryCache()
	}
	if o.provider != nil {
		dev, err := NewHALDeviceFromProvider(o.provider)
		if err != nil {
			return nil, err
		}
		c.device = dev
	}
	if c.device != nil {
		g3d.Logger().Info("render: context current", "context", c.id)
	}
	return c, nil
}

// ID returns the context identity used as the geometry cache key.
func (c *Context) ID() ContextID { return c.id }

// Queue returns the upload queue.
func (c *Context) Queue() *load.Queue[Device] { return c.queue }

// Cache returns the geometry cache.
func (c *Context) Cache() *GeometryCache { return c.cache }

// Enqueue pushes p to the upload queue. It reports false for empty or
// already queued pendings and on a closed context.
func (c *Context) Enqueue(p *load.Pending[Device]) bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}
	return c.queue.Push(p)
}

// MakeCurrent attaches dev. Queued uploads are applied by the next Flush.
func (c *Context) MakeCurrent(dev Device) error {
	if dev == nil {
		return ErrNilDevice
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContextClosed
	}
	c.device = dev
	g3d.Logger().Info("render: context current", "context", c.id, "queued", c.queue.Len())
	return nil
}

// ReleaseCurrent detaches the device. Uploads keep queuing.
func (c *Context) ReleaseCurrent() {
	c.mu.Lock()
	c.device = nil
	c.mu.Unlock()
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Current reports whether a device is attached.
func (c *Context) Current() bool {
	return c.Device() != nil
}

// Device returns the current device, or nil.
func (c *Context) Device() Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Flush drains the upload queue into the current device. Without a current
// device it returns ErrNotCurrent and leaves the queue untouched. Upload
// failures are reported joined after the whole queue was processed.
func (c *Context) Flush(opts ...load.DrainOption) (load.DrainStats, error) {
	c.mu.Lock()
	dev, closed := c.device, c.closed
	c.mu.Unlock()

	switch {
	case closed:
		return load.DrainStats{}, ErrContextClosed
	case dev == nil:
		return load.DrainStats{}, ErrNotCurrent
	}

	stats, err := c.queue.Drain(dev, opts...)
	if stats.Total() > 0 {
		g3d.Logger().Info("render: context flushed",
			"context", c.id,
			"uploaded", stats.Uploaded,
			"discarded", stats.Discarded,
			"failed", stats.Failed)
	}
	return stats, err
}

// Close drops every queued upload without applying it, erases the
// context's cache entries and detaches the device. Close is idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.device = nil
	c.mu.Unlock()

	dropped := c.queue.Clear()
	purged := c.cache.Purge(c.id)
	g3d.Logger().Debug("render: context closed", "context", c.id, "dropped", dropped, "purged", purged)
	return nil
}
