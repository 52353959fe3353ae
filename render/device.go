// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Device errors.
var (
	// ErrNilDevice is returned when an operation needs a device and none is set.
	ErrNilDevice = errors.New("render: device is nil")

	// ErrNoHAL is returned when a DeviceHandle does not expose HAL objects.
	ErrNoHAL = errors.New("render: device provider does not expose HAL types")

	// ErrUploadFailed is returned when the device rejects an upload.
	ErrUploadFailed = errors.New("render: upload failed")
)

// DeviceHandle provides GPU device access from the host application.
//
// It is an alias for gpucontext.DeviceProvider so any gogpu host can hand
// its device to g3d without an adapter. Providers that also expose
// HalDevice() and HalQueue() can be wrapped with [NewHALDeviceFromProvider].
type DeviceHandle = gpucontext.DeviceProvider

// BufferID identifies a GPU buffer created by a Device. Zero is never a
// valid buffer.
type BufferID uint64

// TextureID identifies a GPU texture created by a Device. Zero is never a
// valid texture.
type TextureID uint64

// Device is the GPU surface uploads are drained against.
//
// Implementations are used from the goroutine that owns the GPU context.
type Device interface {
	// CreateBuffer creates a buffer with the given usage and initial contents.
	CreateBuffer(label string, usage gputypes.BufferUsage, data []byte) (BufferID, error)

	// DestroyBuffer releases a buffer. Unknown ids are ignored.
	DestroyBuffer(id BufferID)

	// CreateTexture creates a texture and fills mip level 0 with pixels.
	CreateTexture(desc TextureDescriptor, pixels []byte) (TextureID, error)

	// DestroyTexture releases a texture. Unknown ids are ignored.
	DestroyTexture(id TextureID)
}

// DrawPass receives the draw commands of resident geometry. It is
// implemented by the host renderer around its render pass encoder.
type DrawPass interface {
	SetVertexBuffer(slot uint32, id BufferID)
	SetIndexBuffer(id BufferID, format gputypes.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
}

// TextureDescriptor describes parameters for creating a texture.
// This mirrors the WebGPU GPUTextureDescriptor specification.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// DefaultTextureDescriptor returns a descriptor for a sampled texture that
// is filled by a queue write.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// BytesPerPixel returns the texel size of the formats g3d uploads, or 0
// for any other format.
func BytesPerPixel(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm:
		return 4
	default:
		return 0
	}
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Handing it to a context leaves the context without a usable device.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
