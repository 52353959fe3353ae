package render

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// ResourceState is the lifecycle state of a GPU resource.
type ResourceState int

const (
	// StateUnloaded means no GPU object exists yet.
	StateUnloaded ResourceState = iota
	// StateResident means the GPU objects exist and can be drawn.
	StateResident
	// StateFailed means the upload was attempted and failed.
	StateFailed
	// StateReleased means the last owner released the resource.
	StateReleased
)

// String returns the string representation of ResourceState.
func (s ResourceState) String() string {
	switch s {
	case StateUnloaded:
		return "Unloaded"
	case StateResident:
		return "Resident"
	case StateFailed:
		return "Failed"
	case StateReleased:
		return "Released"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Vertex buffer slots bound by GeometryBuffer.Draw.
const (
	SlotPosition uint32 = 0
	SlotNormal   uint32 = 1
	SlotTexCoord uint32 = 2
)

// residentGeometry holds the GPU objects of an uploaded mesh. It only
// exists while a GeometryBuffer is resident.
type residentGeometry struct {
	device     Device
	vertex     BufferID
	normal     BufferID
	texCoord   BufferID // zero when the mesh has no texture coordinates
	index      BufferID
	indexCount uint32
}

func (r *residentGeometry) destroy() {
	for _, id := range []BufferID{r.vertex, r.normal, r.texCoord, r.index} {
		if id != 0 {
			r.device.DestroyBuffer(id)
		}
	}
}

// GeometryBuffer is the GPU-resident form of a mesh.
//
// A new buffer is unloaded. Only draining its mesh upload (see
// NewMeshUpload) can make it resident. Ownership is shared through
// Retain and Release; when the last owner releases it, its GPU buffers are
// destroyed through the device that created them.
//
// GeometryBuffer values must not be copied.
type GeometryBuffer struct {
	label string
	refs  atomic.Int32

	mu       sync.Mutex
	state    ResourceState
	resident *residentGeometry
	err      error
}

// NewGeometryBuffer returns an unloaded buffer with one owner.
func NewGeometryBuffer(label string) *GeometryBuffer {
	b := &GeometryBuffer{label: label}
	b.refs.Store(1)
	return b
}

// Label returns the debug label.
func (b *GeometryBuffer) Label() string { return b.label }

// State returns the lifecycle state.
func (b *GeometryBuffer) State() ResourceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Ready reports whether the buffer is resident and can be drawn.
func (b *GeometryBuffer) Ready() bool {
	return b.State() == StateResident
}

// Err returns the upload error of a failed buffer.
func (b *GeometryBuffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// IndexCount returns the number of indices drawn, or 0 when not resident.
func (b *GeometryBuffer) IndexCount() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resident == nil {
		return 0
	}
	return b.resident.indexCount
}

// Retain adds an owner.
func (b *GeometryBuffer) Retain() *GeometryBuffer {
	b.refs.Add(1)
	return b
}

// RefCount returns the number of owners.
func (b *GeometryBuffer) RefCount() int {
	return int(b.refs.Load())
}

// Release drops an owner. The last release destroys the GPU buffers and
// leaves the buffer in StateReleased. It must run on the goroutine that
// owns the GPU when the buffer is resident.
func (b *GeometryBuffer) Release() {
	n := b.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		b.refs.Store(0)
		return
	}
	b.mu.Lock()
	res := b.resident
	b.resident = nil
	b.state = StateReleased
	b.mu.Unlock()
	if res != nil {
		res.destroy()
	}
}

// Draw binds the vertex attributes and index buffer and issues one indexed
// draw. It does nothing and returns false unless the buffer is resident.
func (b *GeometryBuffer) Draw(pass DrawPass) bool {
	return b.DrawInstanced(pass, 1)
}

// DrawInstanced is Draw with an instance count.
func (b *GeometryBuffer) DrawInstanced(pass DrawPass, instances uint32) bool {
	b.mu.Lock()
	res := b.resident
	b.mu.Unlock()
	if res == nil || pass == nil || instances == 0 {
		return false
	}
	pass.SetVertexBuffer(SlotPosition, res.vertex)
	pass.SetVertexBuffer(SlotNormal, res.normal)
	if res.texCoord != 0 {
		pass.SetVertexBuffer(SlotTexCoord, res.texCoord)
	}
	pass.SetIndexBuffer(res.index, gputypes.IndexFormatUint32)
	pass.DrawIndexed(res.indexCount, instances)
	return true
}

// makeResident installs uploaded GPU objects. A buffer released while its
// upload was in flight destroys them immediately.
func (b *GeometryBuffer) makeResident(res *residentGeometry) {
	b.mu.Lock()
	if b.state == StateReleased {
		b.mu.Unlock()
		res.destroy()
		return
	}
	b.resident = res
	b.state = StateResident
	b.err = nil
	b.mu.Unlock()
}

func (b *GeometryBuffer) fail(err error) {
	b.mu.Lock()
	if b.state != StateReleased {
		b.state = StateFailed
		b.err = err
	}
	b.mu.Unlock()
}
