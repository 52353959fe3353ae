package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/load"
	"github.com/gogpu/g3d/mesh"
)

// meshUpload is the deferred transfer of one mesh into a GeometryBuffer.
type meshUpload struct {
	dest *GeometryBuffer
	mesh *mesh.Mesh
}

// NewMeshUpload returns a pending upload of m into dest. The pending owns m
// from now on; the caller must not modify it.
func NewMeshUpload(dest *GeometryBuffer, m *mesh.Mesh) *load.Pending[Device] {
	return load.NewPending[Device](&meshUpload{dest: dest, mesh: m})
}

// Load creates the vertex, normal, texture coordinate and index buffers.
// On any failure the buffers created so far are destroyed and dest is
// marked failed.
func (u *meshUpload) Load(dev Device) error {
	m := u.mesh
	u.mesh = nil
	if dev == nil {
		u.dest.fail(ErrNilDevice)
		return ErrNilDevice
	}
	if err := m.Validate(); err != nil {
		err = fmt.Errorf("render: upload %q: %w", u.dest.label, err)
		u.dest.fail(err)
		return err
	}

	res := &residentGeometry{device: dev, indexCount: uint32(len(m.Indices))}
	type part struct {
		id    *BufferID
		name  string
		usage gputypes.BufferUsage
		data  []byte
	}
	parts := []part{
		{&res.vertex, "positions", gputypes.BufferUsageVertex, vec3Bytes(m.Vertices)},
		{&res.normal, "normals", gputypes.BufferUsageVertex, vec3Bytes(m.Normals)},
		{&res.index, "indices", gputypes.BufferUsageIndex, uint32Bytes(m.Indices)},
	}
	if m.HasTexCoords() {
		parts = append(parts, part{&res.texCoord, "texcoords", gputypes.BufferUsageVertex, vec2Bytes(m.TexCoords)})
	}
	for _, p := range parts {
		id, err := dev.CreateBuffer(u.dest.label+" "+p.name, p.usage, p.data)
		if err == nil && id == 0 {
			err = fmt.Errorf("%w: device returned no buffer", ErrUploadFailed)
		}
		if err != nil {
			res.destroy()
			err = fmt.Errorf("render: upload %q %s: %w", u.dest.label, p.name, err)
			u.dest.fail(err)
			return err
		}
		*p.id = id
	}
	u.dest.makeResident(res)
	return nil
}

// Discard drops the mesh. The buffer stays unloaded.
func (u *meshUpload) Discard() {
	u.mesh = nil
	g3d.Logger().Debug("render: geometry upload discarded", "label", u.dest.label)
}

func vec3Bytes(v []g3d.Vec3) []byte {
	buf := make([]byte, len(v)*12)
	for i, p := range v {
		binary.LittleEndian.PutUint32(buf[i*12:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(buf[i*12+4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(buf[i*12+8:], math.Float32bits(p.Z))
	}
	return buf
}

func vec2Bytes(v []g3d.Vec2) []byte {
	buf := make([]byte, len(v)*8)
	for i, p := range v {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(p.Y))
	}
	return buf
}

func uint32Bytes(v []uint32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], x)
	}
	return buf
}
