// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d"
)

// HALDevice is a Device backed by a gogpu/wgpu HAL device and queue.
//
// The device and queue belong to the host; HALDevice only tracks the
// buffers and textures it created so they can be looked up by id when the
// host binds them.
type HALDevice struct {
	device hal.Device
	queue  hal.Queue

	mu       sync.Mutex
	nextID   uint64
	buffers  map[BufferID]hal.Buffer
	textures map[TextureID]hal.Texture
}

// NewHALDevice wraps a HAL device and queue.
func NewHALDevice(device hal.Device, queue hal.Queue) (*HALDevice, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &HALDevice{
		device:   device,
		queue:    queue,
		buffers:  make(map[BufferID]hal.Buffer),
		textures: make(map[TextureID]hal.Texture),
	}, nil
}

// NewHALDeviceFromProvider extracts the HAL device and queue from a host
// provider exposing HalDevice() and HalQueue().
func NewHALDeviceFromProvider(provider DeviceHandle) (*HALDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewHALDevice(device, queue)
}

// CreateBuffer creates a buffer sized to data (rounded up to 4 bytes) and
// writes data into it.
func (d *HALDevice) CreateBuffer(label string, usage gputypes.BufferUsage, data []byte) (BufferID, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: buffer %q is empty", ErrUploadFailed, label)
	}
	size := (uint64(len(data)) + 3) &^ 3
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create buffer %q: %w", ErrUploadFailed, label, err)
	}
	if err := d.queue.WriteBuffer(buf, 0, padTo4(data)); err != nil {
		d.device.DestroyBuffer(buf)
		return 0, fmt.Errorf("%w: write buffer %q: %w", ErrUploadFailed, label, err)
	}

	d.mu.Lock()
	d.nextID++
	id := BufferID(d.nextID)
	d.buffers[id] = buf
	d.mu.Unlock()

	g3d.Logger().Debug("render: buffer created", "label", label, "size", size)
	return id, nil
}

// DestroyBuffer destroys a buffer created by CreateBuffer.
func (d *HALDevice) DestroyBuffer(id BufferID) {
	d.mu.Lock()
	buf, ok := d.buffers[id]
	delete(d.buffers, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyBuffer(buf)
	}
}

// Buffer returns the HAL buffer for id, or nil.
func (d *HALDevice) Buffer(id BufferID) hal.Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffers[id]
}

// CreateTexture creates a 2D texture and uploads pixels to mip level 0.
func (d *HALDevice) CreateTexture(desc TextureDescriptor, pixels []byte) (TextureID, error) {
	bpp := BytesPerPixel(desc.Format)
	if bpp == 0 || desc.Width == 0 || desc.Height == 0 {
		return 0, fmt.Errorf("%w: texture %q: unsupported %dx%d format %v", ErrUploadFailed, desc.Label, desc.Width, desc.Height, desc.Format)
	}
	if want := int(desc.Width * desc.Height * bpp); len(pixels) != want {
		return 0, fmt.Errorf("%w: texture %q: %d bytes of pixel data, want %d", ErrUploadFailed, desc.Label, len(pixels), want)
	}
	size := hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: create texture %q: %w", ErrUploadFailed, desc.Label, err)
	}
	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: desc.Width * bpp, RowsPerImage: desc.Height},
		&size,
	)
	if err != nil {
		d.device.DestroyTexture(tex)
		return 0, fmt.Errorf("%w: write texture %q: %w", ErrUploadFailed, desc.Label, err)
	}

	d.mu.Lock()
	d.nextID++
	id := TextureID(d.nextID)
	d.textures[id] = tex
	d.mu.Unlock()

	g3d.Logger().Debug("render: texture created", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return id, nil
}

// DestroyTexture destroys a texture created by CreateTexture.
func (d *HALDevice) DestroyTexture(id TextureID) {
	d.mu.Lock()
	tex, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyTexture(tex)
	}
}

// Texture returns the HAL texture for id, or nil.
func (d *HALDevice) Texture(id TextureID) hal.Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textures[id]
}

// Live returns the number of buffers and textures not yet destroyed.
func (d *HALDevice) Live() (buffers, textures int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers), len(d.textures)
}

// padTo4 returns data extended with zeros to a multiple of 4 bytes, the
// granularity queue writes require.
func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, (len(data)+3)&^3)
	copy(out, data)
	return out
}

var _ Device = (*HALDevice)(nil)
