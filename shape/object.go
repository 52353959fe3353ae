package shape

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/load"
	"github.com/gogpu/g3d/mesh"
	"github.com/gogpu/g3d/render"
)

// Errors returned by shape constructors and setters.
var (
	// ErrNilContext is returned when a shape is created without a context.
	ErrNilContext = errors.New("shape: context is nil")

	// ErrClosed is returned by setters on a closed object.
	ErrClosed = errors.New("shape: object is closed")
)

// Kind names the canonical mesh a primitive shape shares with every other
// shape of the same kind in its context.
type Kind = render.GeometryKind

// Shape kinds.
const (
	KindCube     Kind = "cube"
	KindCylinder Kind = "cylinder"
	KindSphere   Kind = "sphere"
	KindLine     Kind = "line"
)

var lastObjectID atomic.Uint64

// Object is the state common to every shape: its transform, its geometry
// and the uploads it queued.
//
// Close releases the object's hold on shared geometry; objects that are
// never closed keep their GPU buffers alive for the life of the context.
type Object struct {
	g3d.Transform

	id       uint64
	ctx      *render.Context
	kind     Kind // empty for unique geometry
	factory  func() *mesh.Mesh
	geometry *render.GeometryBuffer
	pending  *load.Pending[render.Device]

	texture    *render.Texture
	texPending *load.Pending[render.Device]

	color  color.NRGBA
	hidden bool
	closed bool
}

// initShared sets o up on the cached canonical mesh of kind.
func (o *Object) initShared(ctx *render.Context, kind Kind, factory func() *mesh.Mesh) error {
	if ctx == nil {
		return ErrNilContext
	}
	if ctx.Closed() {
		return render.ErrContextClosed
	}
	buf, p, err := ctx.Cache().Acquire(ctx.ID(), kind, factory)
	if err != nil {
		return err
	}
	if p != nil && !ctx.Enqueue(p) && ctx.Closed() {
		// Closed between the check and Acquire: undo the entry.
		p.Release()
		ctx.Cache().ReleaseBuffer(ctx.ID(), kind, buf)
		buf.Release()
		return render.ErrContextClosed
	}
	o.init(ctx, kind, buf)
	o.factory = factory
	o.pending = p
	return nil
}

// initUnique sets o up on its own copy of m.
func (o *Object) initUnique(ctx *render.Context, label string, m *mesh.Mesh) error {
	if ctx == nil {
		return ErrNilContext
	}
	buf, p, err := newUpload(ctx, label, m)
	if err != nil {
		return err
	}
	o.init(ctx, "", buf)
	o.pending = p
	return nil
}

// newUpload queues the upload of a copy of m into a new buffer.
func newUpload(ctx *render.Context, label string, m *mesh.Mesh) (*render.GeometryBuffer, *load.Pending[render.Device], error) {
	if ctx.Closed() {
		return nil, nil, render.ErrContextClosed
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	buf := render.NewGeometryBuffer(label)
	p := render.NewMeshUpload(buf, m.Clone())
	if !ctx.Enqueue(p) {
		p.Release()
		buf.Release()
		return nil, nil, render.ErrContextClosed
	}
	return buf, p, nil
}

// cloneInto sets dst up as a copy of o drawing the same GPU geometry and
// texture. Shared kinds take another instance from the cache; unique
// geometry and the texture are shared by reference, so their uploads run
// once for both objects and stay alive until both are closed.
func (o *Object) cloneInto(dst *Object) error {
	if o.closed || o.ctx == nil {
		return ErrClosed
	}
	if o.ctx.Closed() {
		return render.ErrContextClosed
	}
	if o.kind != "" {
		if err := dst.initShared(o.ctx, o.kind, o.factory); err != nil {
			return err
		}
	} else {
		dst.init(o.ctx, "", o.geometry.Retain())
		dst.pending = o.pending.Clone()
	}
	dst.Transform = o.Transform
	dst.color = o.color
	dst.hidden = o.hidden
	if o.texture != nil {
		dst.texture = o.texture.Retain()
		dst.texPending = o.texPending.Clone()
	}
	return nil
}

// setMesh replaces unique geometry with a copy of m. The old upload is
// cancelled if nothing else needs it and the old buffer is released once
// every object drawing it is closed.
func (o *Object) setMesh(label string, m *mesh.Mesh) error {
	if o.closed || o.ctx == nil {
		return ErrClosed
	}
	buf, p, err := newUpload(o.ctx, label, m)
	if err != nil {
		return err
	}
	o.pending.Release()
	o.geometry.Release()
	o.geometry = buf
	o.pending = p
	return nil
}

func (o *Object) init(ctx *render.Context, kind Kind, buf *render.GeometryBuffer) {
	o.Transform = g3d.NewTransform()
	o.id = lastObjectID.Add(1)
	o.ctx = ctx
	o.kind = kind
	o.geometry = buf
	o.color = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	g3d.Logger().Debug("shape: created", "id", o.id, "kind", kind, "context", ctx.ID())
}

// ID returns a process-unique object id.
func (o *Object) ID() uint64 { return o.id }

// Kind returns the shared geometry kind, or "" for unique geometry.
func (o *Object) Kind() Kind { return o.kind }

// Context returns the owning context.
func (o *Object) Context() *render.Context { return o.ctx }

// Geometry returns the GPU geometry drawn by the object.
func (o *Object) Geometry() *render.GeometryBuffer { return o.geometry }

// Ready reports whether the geometry is resident.
func (o *Object) Ready() bool {
	return !o.closed && o.geometry.Ready()
}

// SetColor sets the base color.
func (o *Object) SetColor(c color.Color) {
	o.color = color.NRGBAModel.Convert(c).(color.NRGBA)
}

// Color returns the base color. The default is opaque white.
func (o *Object) Color() color.NRGBA { return o.color }

// SetHidden hides or shows the object.
func (o *Object) SetHidden(hidden bool) { o.hidden = hidden }

// Hidden reports whether the object is hidden.
func (o *Object) Hidden() bool { return o.hidden }

// Texture returns the object's texture, or nil.
func (o *Object) Texture() *render.Texture { return o.texture }

// SetTexture replaces the object's texture with an encoded image (PNG,
// JPEG, GIF, BMP, TIFF or WebP). The upload is queued on the context.
func (o *Object) SetTexture(data []byte, opts ...render.TextureOption) error {
	if o.closed {
		return ErrClosed
	}
	tex := render.NewTexture(o.textureLabel())
	p, err := render.NewTextureUpload(tex, data, opts...)
	if err != nil {
		tex.Release()
		return err
	}
	o.replaceTexture(tex, p)
	return nil
}

// SetImage replaces the object's texture with a decoded image.
func (o *Object) SetImage(img image.Image, opts ...render.TextureOption) error {
	if o.closed {
		return ErrClosed
	}
	tex := render.NewTexture(o.textureLabel())
	o.replaceTexture(tex, render.NewImageUpload(tex, img, opts...))
	return nil
}

func (o *Object) replaceTexture(tex *render.Texture, p *load.Pending[render.Device]) {
	o.releaseTexture()
	o.texture = tex
	o.texPending = p
	o.ctx.Enqueue(p)
}

func (o *Object) releaseTexture() {
	o.texPending.Release()
	o.texPending = nil
	if o.texture != nil {
		o.texture.Release()
		o.texture = nil
	}
}

func (o *Object) textureLabel() string {
	if o.kind != "" {
		return string(o.kind) + " texture"
	}
	return o.geometry.Label() + " texture"
}

// Draw issues the object's draw call. Hidden, closed and not yet resident
// objects draw nothing and return false. The caller binds the pipeline and
// the per-object uniforms (ModelMatrix, Color, Texture) beforehand.
func (o *Object) Draw(pass render.DrawPass) bool {
	if o.closed || o.hidden {
		return false
	}
	return o.geometry.Draw(pass)
}

// Close drops the object's uploads and its hold on the geometry and
// texture. Uploads not yet applied are cancelled if nothing else needs
// them. Close is idempotent.
func (o *Object) Close() error {
	if o.closed || o.ctx == nil {
		return nil
	}
	o.closed = true

	o.pending.Release()
	o.pending = nil
	if o.kind != "" {
		o.ctx.Cache().ReleaseBuffer(o.ctx.ID(), o.kind, o.geometry)
	}
	o.geometry.Release()
	o.releaseTexture()
	g3d.Logger().Debug("shape: closed", "id", o.id, "kind", o.kind)
	return nil
}
