package render

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"
)

// HeadlessBuffer is a buffer held in memory by a HeadlessDevice.
type HeadlessBuffer struct {
	Label string
	Usage gputypes.BufferUsage
	Data  []byte
}

// HeadlessTexture is a texture held in memory by a HeadlessDevice.
type HeadlessTexture struct {
	Desc   TextureDescriptor
	Pixels []byte
}

// DeviceStats summarizes the work a HeadlessDevice has seen.
type DeviceStats struct {
	BuffersCreated   int
	BuffersLive      int
	TexturesCreated  int
	TexturesLive     int
	BytesUploaded    int64
	FailedOperations int
}

// HeadlessDevice is an in-memory Device. It keeps a copy of everything
// uploaded to it, which makes it useful for tests and for offline tools
// that want to measure a scene without a GPU.
type HeadlessDevice struct {
	mu       sync.Mutex
	nextID   uint64
	buffers  map[BufferID]HeadlessBuffer
	textures map[TextureID]HeadlessTexture
	stats    DeviceStats
	fail     error
}

// NewHeadlessDevice returns an empty headless device.
func NewHeadlessDevice() *HeadlessDevice {
	return &HeadlessDevice{
		buffers:  make(map[BufferID]HeadlessBuffer),
		textures: make(map[TextureID]HeadlessTexture),
	}
}

// FailWith makes every following create call fail with err. Pass nil to
// restore normal behavior.
func (d *HeadlessDevice) FailWith(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

// CreateBuffer stores a copy of data.
func (d *HeadlessDevice) CreateBuffer(label string, usage gputypes.BufferUsage, data []byte) (BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		d.stats.FailedOperations++
		return 0, fmt.Errorf("%w: create buffer %q: %w", ErrUploadFailed, label, d.fail)
	}
	if len(data) == 0 {
		d.stats.FailedOperations++
		return 0, fmt.Errorf("%w: buffer %q is empty", ErrUploadFailed, label)
	}
	d.nextID++
	id := BufferID(d.nextID)
	d.buffers[id] = HeadlessBuffer{Label: label, Usage: usage, Data: slices.Clone(data)}
	d.stats.BuffersCreated++
	d.stats.BytesUploaded += int64(len(data))
	return id, nil
}

// DestroyBuffer drops a buffer.
func (d *HeadlessDevice) DestroyBuffer(id BufferID) {
	d.mu.Lock()
	delete(d.buffers, id)
	d.mu.Unlock()
}

// Buffer returns the stored buffer for id.
func (d *HeadlessDevice) Buffer(id BufferID) (HeadlessBuffer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	return b, ok
}

// CreateTexture stores a copy of pixels.
func (d *HeadlessDevice) CreateTexture(desc TextureDescriptor, pixels []byte) (TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		d.stats.FailedOperations++
		return 0, fmt.Errorf("%w: create texture %q: %w", ErrUploadFailed, desc.Label, d.fail)
	}
	bpp := BytesPerPixel(desc.Format)
	if bpp == 0 || desc.Width == 0 || desc.Height == 0 || len(pixels) != int(desc.Width*desc.Height*bpp) {
		d.stats.FailedOperations++
		return 0, fmt.Errorf("%w: texture %q: bad %dx%d upload of %d bytes", ErrUploadFailed, desc.Label, desc.Width, desc.Height, len(pixels))
	}
	d.nextID++
	id := TextureID(d.nextID)
	d.textures[id] = HeadlessTexture{Desc: desc, Pixels: slices.Clone(pixels)}
	d.stats.TexturesCreated++
	d.stats.BytesUploaded += int64(len(pixels))
	return id, nil
}

// DestroyTexture drops a texture.
func (d *HeadlessDevice) DestroyTexture(id TextureID) {
	d.mu.Lock()
	delete(d.textures, id)
	d.mu.Unlock()
}

// Texture returns the stored texture for id.
func (d *HeadlessDevice) Texture(id TextureID) (HeadlessTexture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	return t, ok
}

// Stats returns a snapshot of the device counters.
func (d *HeadlessDevice) Stats() DeviceStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.BuffersLive = len(d.buffers)
	s.TexturesLive = len(d.textures)
	return s
}

var _ Device = (*HeadlessDevice)(nil)
