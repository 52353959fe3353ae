package render

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

type residentTexture struct {
	device Device
	id     TextureID
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

// Texture is a GPU-resident image. Like GeometryBuffer it starts unloaded
// and only its upload payload (NewTextureUpload, NewImageUpload or a font
// atlas upload) can make it resident.
type Texture struct {
	label string
	refs  atomic.Int32

	mu       sync.Mutex
	state    ResourceState
	resident *residentTexture
	err      error
}

// NewTexture returns an unloaded texture with one owner.
func NewTexture(label string) *Texture {
	t := &Texture{label: label}
	t.refs.Store(1)
	return t
}

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// State returns the lifecycle state.
func (t *Texture) State() ResourceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Ready reports whether the texture is resident.
func (t *Texture) Ready() bool { return t.State() == StateResident }

// Err returns the upload error of a failed texture.
func (t *Texture) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// ID returns the device texture id, or 0 when not resident.
func (t *Texture) ID() TextureID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resident == nil {
		return 0
	}
	return t.resident.id
}

// Size returns the texture size in pixels, or zeros when not resident.
func (t *Texture) Size() (width, height uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resident == nil {
		return 0, 0
	}
	return t.resident.width, t.resident.height
}

// Format returns the pixel format, or TextureFormatUndefined when not
// resident.
func (t *Texture) Format() gputypes.TextureFormat {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resident == nil {
		return gputypes.TextureFormatUndefined
	}
	return t.resident.format
}

// Retain adds an owner.
func (t *Texture) Retain() *Texture {
	t.refs.Add(1)
	return t
}

// RefCount returns the number of owners.
func (t *Texture) RefCount() int { return int(t.refs.Load()) }

// Release drops an owner; the last release destroys the GPU texture.
func (t *Texture) Release() {
	n := t.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		t.refs.Store(0)
		return
	}
	t.mu.Lock()
	res := t.resident
	t.resident = nil
	t.state = StateReleased
	t.mu.Unlock()
	if res != nil {
		res.device.DestroyTexture(res.id)
	}
}

// upload creates the GPU texture and makes t resident, or marks it failed.
func (t *Texture) upload(dev Device, desc TextureDescriptor, pixels []byte) error {
	if dev == nil {
		t.fail(ErrNilDevice)
		return ErrNilDevice
	}
	desc.Label = t.label
	id, err := dev.CreateTexture(desc, pixels)
	if err == nil && id == 0 {
		err = ErrUploadFailed
	}
	if err != nil {
		t.fail(err)
		return err
	}

	t.mu.Lock()
	if t.state == StateReleased {
		t.mu.Unlock()
		dev.DestroyTexture(id)
		return nil
	}
	t.resident = &residentTexture{device: dev, id: id, width: desc.Width, height: desc.Height, format: desc.Format}
	t.state = StateResident
	t.err = nil
	t.mu.Unlock()
	return nil
}

func (t *Texture) fail(err error) {
	t.mu.Lock()
	if t.state != StateReleased {
		t.state = StateFailed
		t.err = err
	}
	t.mu.Unlock()
}
