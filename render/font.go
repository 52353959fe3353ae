package render

import (
	"image"
	"sync"

	gotext "github.com/go-text/typesetting/font"

	"github.com/gogpu/g3d"
)

// Glyph locates one rasterized rune in a font atlas.
type Glyph struct {
	// Rect is the glyph area in atlas pixels.
	Rect image.Rectangle
	// Advance is the horizontal pen advance in pixels.
	Advance float32
	// Bearing is the offset from the pen position on the baseline to the
	// top-left corner of Rect, Y pointing down.
	Bearing g3d.Vec2
}

type fontMetrics struct {
	family     string
	size       float64
	ascent     float32
	lineHeight float32
	glyphs     map[rune]Glyph
	face       *gotext.Face
}

// Font is a rasterized font: an R8 atlas texture plus the glyph table that
// indexes it. Metrics are available once the font is resident.
type Font struct {
	atlas *Texture

	mu      sync.Mutex
	metrics *fontMetrics
}

// NewFont returns an unloaded font with one owner.
func NewFont(label string) *Font {
	return &Font{atlas: NewTexture(label)}
}

// Label returns the debug label.
func (f *Font) Label() string { return f.atlas.Label() }

// Atlas returns the glyph atlas texture.
func (f *Font) Atlas() *Texture { return f.atlas }

// State returns the lifecycle state of the atlas.
func (f *Font) State() ResourceState { return f.atlas.State() }

// Ready reports whether the atlas is resident.
func (f *Font) Ready() bool { return f.atlas.Ready() }

// Err returns the upload error of a failed font.
func (f *Font) Err() error { return f.atlas.Err() }

// Retain adds an owner.
func (f *Font) Retain() *Font {
	f.atlas.Retain()
	return f
}

// Release drops an owner; the last release destroys the atlas.
func (f *Font) Release() {
	f.atlas.Release()
	if f.atlas.State() == StateReleased {
		f.mu.Lock()
		f.metrics = nil
		f.mu.Unlock()
	}
}

// Family returns the font family name, or "" when not resident.
func (f *Font) Family() string {
	if m := f.current(); m != nil {
		return m.family
	}
	return ""
}

// Size returns the rasterized size in pixels per em.
func (f *Font) Size() float64 {
	if m := f.current(); m != nil {
		return m.size
	}
	return 0
}

// Ascent returns the distance from the top of a line to the baseline.
func (f *Font) Ascent() float32 {
	if m := f.current(); m != nil {
		return m.ascent
	}
	return 0
}

// LineHeight returns the recommended baseline-to-baseline distance.
func (f *Font) LineHeight() float32 {
	if m := f.current(); m != nil {
		return m.lineHeight
	}
	return 0
}

// Glyph returns the atlas entry for r.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	m := f.current()
	if m == nil {
		return Glyph{}, false
	}
	g, ok := m.glyphs[r]
	return g, ok
}

// Len returns the number of glyphs in the atlas.
func (f *Font) Len() int {
	if m := f.current(); m != nil {
		return len(m.glyphs)
	}
	return 0
}

// Measure returns the advance width of s. Runes missing from the atlas
// contribute nothing.
func (f *Font) Measure(s string) float32 {
	m := f.current()
	if m == nil {
		return 0
	}
	var w float32
	for _, r := range s {
		w += m.glyphs[r].Advance
	}
	return w
}

// Face returns the parsed go-text face for shaping text against the atlas,
// or nil when not resident.
func (f *Font) Face() *gotext.Face {
	if m := f.current(); m != nil {
		return m.face
	}
	return nil
}

func (f *Font) current() *fontMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics
}

func (f *Font) setMetrics(m *fontMetrics) {
	f.mu.Lock()
	f.metrics = m
	f.mu.Unlock()
}
