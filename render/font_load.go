package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sort"
	"unicode"

	gotext "github.com/go-text/typesetting/font"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/rangetable"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/load"
)

// ErrInvalidFont is returned for data that is not a TrueType or OpenType
// font.
var ErrInvalidFont = errors.New("render: invalid font data")

// DefaultFontSize is the rasterization size in pixels per em.
const DefaultFontSize = 32

// atlasPadding separates glyphs in the atlas so linear sampling does not
// bleed between neighbours.
const atlasPadding = 1

// printableASCII is the default charset.
var printableASCII = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x20, Hi: 0x7e, Stride: 1}},
}

// FontOption configures a font upload.
type FontOption func(*fontOptions)

type fontOptions struct {
	size    float64
	charset *unicode.RangeTable
}

// WithSize sets the rasterization size in pixels per em.
func WithSize(size float64) FontOption {
	return func(o *fontOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithCharset replaces the rasterized character set. The default is
// printable ASCII.
func WithCharset(rt *unicode.RangeTable) FontOption {
	return func(o *fontOptions) {
		if rt != nil {
			o.charset = rt
		}
	}
}

// WithRunes adds individual runes to the character set.
func WithRunes(runes string) FontOption {
	return func(o *fontOptions) {
		o.charset = rangetable.Merge(o.charset, rangetable.New([]rune(runes)...))
	}
}

// fontUpload rasterizes a font into an atlas and uploads it.
type fontUpload struct {
	dest   *Font
	face   *gotext.Face
	font   *opentype.Font
	runes  []rune
	family string
	size   float64
}

// NewFontUpload returns a pending upload of a TrueType or OpenType font
// into dest. The font is parsed immediately; runes of the charset the font
// has no glyph for are dropped. Rasterization happens when the upload is
// drained.
func NewFontUpload(dest *Font, data []byte, opts ...FontOption) (*load.Pending[Device], error) {
	o := fontOptions{size: DefaultFontSize, charset: printableASCII}
	for _, opt := range opts {
		opt(&o)
	}

	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFont, dest.Label(), err)
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFont, dest.Label(), err)
	}
	family, err := otf.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		family = ""
	}

	var runes []rune
	rangetable.Visit(o.charset, func(r rune) {
		if _, ok := face.NominalGlyph(r); ok {
			runes = append(runes, r)
		}
	})
	if len(runes) == 0 {
		return nil, fmt.Errorf("%w: %q covers none of the requested runes", ErrInvalidFont, dest.Label())
	}

	return load.NewPending[Device](&fontUpload{
		dest:   dest,
		face:   face,
		font:   otf,
		runes:  runes,
		family: family,
		size:   o.size,
	}), nil
}

type rasterGlyph struct {
	r       rune
	img     *image.Alpha
	advance float32
	bearing g3d.Vec2
	pos     image.Point
}

// Load rasterizes the glyphs, packs them and uploads the atlas.
func (u *fontUpload) Load(dev Device) error {
	face, err := opentype.NewFace(u.font, &opentype.FaceOptions{
		Size:    u.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		u.dest.atlas.fail(err)
		return fmt.Errorf("render: font %q: %w", u.dest.Label(), err)
	}
	defer face.Close()

	glyphs := make([]rasterGlyph, 0, len(u.runes))
	for _, r := range u.runes {
		dr, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		g := rasterGlyph{
			r:       r,
			img:     image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy())),
			advance: fixedToFloat(adv),
			bearing: g3d.V2(float32(dr.Min.X), float32(dr.Min.Y)),
		}
		// The mask is only valid until the next Glyph call.
		draw.Draw(g.img, g.img.Rect, mask, maskp, draw.Src)
		glyphs = append(glyphs, g)
	}

	atlas := packAtlas(glyphs)
	m := &fontMetrics{
		family:     u.family,
		size:       u.size,
		ascent:     fixedToFloat(face.Metrics().Ascent),
		lineHeight: fixedToFloat(face.Metrics().Height),
		glyphs:     make(map[rune]Glyph, len(glyphs)),
		face:       u.face,
	}
	for _, g := range glyphs {
		rect := g.img.Rect.Add(g.pos)
		draw.Draw(atlas, rect, g.img, image.Point{}, draw.Src)
		m.glyphs[g.r] = Glyph{Rect: rect, Advance: g.advance, Bearing: g.bearing}
	}
	u.font = nil
	u.face = nil

	w, h := atlas.Rect.Dx(), atlas.Rect.Dy()
	desc := DefaultTextureDescriptor(uint32(w), uint32(h), gputypes.TextureFormatR8Unorm)
	if err := u.dest.atlas.upload(dev, desc, tightPixels(atlas.Pix, atlas.Stride, w, h)); err != nil {
		return fmt.Errorf("render: upload font %q: %w", u.dest.Label(), err)
	}
	u.dest.setMetrics(m)
	g3d.Logger().Debug("render: font atlas uploaded",
		"label", u.dest.Label(), "family", u.family, "glyphs", len(m.glyphs), "width", w, "height", h)
	return nil
}

// Discard drops the parsed font. The atlas stays unloaded.
func (u *fontUpload) Discard() {
	u.font = nil
	u.face = nil
	g3d.Logger().Debug("render: font upload discarded", "label", u.dest.Label())
}

// packAtlas assigns shelf positions to glyphs, tallest first, and returns
// an atlas large enough to hold them. The atlas width is a power of two
// no narrower than the widest glyph.
func packAtlas(glyphs []rasterGlyph) *image.Alpha {
	order := make([]int, len(glyphs))
	area, widest := 0, 1
	for i := range glyphs {
		order[i] = i
		s := glyphs[i].img.Rect.Size()
		area += (s.X + atlasPadding) * (s.Y + atlasPadding)
		widest = max(widest, s.X+2*atlasPadding)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return glyphs[order[a]].img.Rect.Dy() > glyphs[order[b]].img.Rect.Dy()
	})

	width := 64
	for width*width < area || width < widest {
		width *= 2
	}

	x, y, shelf := atlasPadding, atlasPadding, 0
	for _, i := range order {
		s := glyphs[i].img.Rect.Size()
		if x+s.X+atlasPadding > width {
			x = atlasPadding
			y += shelf + atlasPadding
			shelf = 0
		}
		glyphs[i].pos = image.Pt(x, y)
		x += s.X + atlasPadding
		shelf = max(shelf, s.Y)
	}
	return image.NewAlpha(image.Rect(0, 0, width, max(1, y+shelf+atlasPadding)))
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
