package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/anthonynsimon/bild/transform"
	"github.com/gogpu/gputypes"
	"github.com/h2non/filetype"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/load"
)

// ErrUnsupportedImage is returned for data that is not a recognized image.
var ErrUnsupportedImage = errors.New("render: unsupported image data")

// TextureOption configures a texture upload.
type TextureOption func(*textureOptions)

type textureOptions struct {
	flipV bool
	usage gputypes.TextureUsage
}

// WithFlipVertical flips the image so its first row is the bottom row,
// matching samplers with a bottom-left texture origin.
func WithFlipVertical() TextureOption {
	return func(o *textureOptions) {
		o.flipV = true
	}
}

// WithTextureUsage adds usage flags to the created texture.
func WithTextureUsage(usage gputypes.TextureUsage) TextureOption {
	return func(o *textureOptions) {
		o.usage |= usage
	}
}

// textureUpload decodes an image and uploads it as RGBA8.
type textureUpload struct {
	dest *Texture
	data []byte      // encoded image, or nil
	img  image.Image // decoded image, or nil
	opts textureOptions
}

// NewTextureUpload returns a pending upload of an encoded image (PNG, JPEG,
// GIF, BMP, TIFF or WebP) into dest. The data is sniffed immediately and
// decoded when the upload is drained.
func NewTextureUpload(dest *Texture, data []byte, opts ...TextureOption) (*load.Pending[Device], error) {
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, dest.label)
	}
	u := &textureUpload{dest: dest, data: data}
	for _, opt := range opts {
		opt(&u.opts)
	}
	return load.NewPending[Device](u), nil
}

// NewImageUpload returns a pending upload of an already decoded image into
// dest.
func NewImageUpload(dest *Texture, img image.Image, opts ...TextureOption) *load.Pending[Device] {
	u := &textureUpload{dest: dest, img: img}
	for _, opt := range opts {
		opt(&u.opts)
	}
	return load.NewPending[Device](u)
}

// Load decodes the image and creates the texture.
func (u *textureUpload) Load(dev Device) error {
	img := u.img
	if img == nil {
		decoded, format, err := image.Decode(bytes.NewReader(u.data))
		if err != nil {
			err = fmt.Errorf("%w: decode %q: %w", ErrUnsupportedImage, u.dest.label, err)
			u.dest.fail(err)
			return err
		}
		g3d.Logger().Debug("render: texture decoded", "label", u.dest.label, "format", format)
		img = decoded
	}
	u.data, u.img = nil, nil

	rgba := toRGBA(img, u.opts.flipV)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	desc := DefaultTextureDescriptor(uint32(w), uint32(h), gputypes.TextureFormatRGBA8Unorm)
	desc.Usage |= u.opts.usage
	if err := u.dest.upload(dev, desc, tightPixels(rgba.Pix, rgba.Stride, w*4, h)); err != nil {
		return fmt.Errorf("render: upload texture %q: %w", u.dest.label, err)
	}
	return nil
}

// Discard drops the image data. The texture stays unloaded.
func (u *textureUpload) Discard() {
	u.data, u.img = nil, nil
	g3d.Logger().Debug("render: texture upload discarded", "label", u.dest.label)
}

// toRGBA converts img to a zero-origin RGBA image, optionally flipped
// vertically.
func toRGBA(img image.Image, flipV bool) *image.RGBA {
	if flipV {
		return transform.FlipV(img)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// tightPixels returns rows of rowBytes each without stride padding.
func tightPixels(pix []byte, stride, rowBytes, rows int) []byte {
	if stride == rowBytes {
		return pix[:rowBytes*rows]
	}
	out := make([]byte, rowBytes*rows)
	for y := range rows {
		copy(out[y*rowBytes:], pix[y*stride:y*stride+rowBytes])
	}
	return out
}
