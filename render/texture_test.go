package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/load"
)

// testImage returns a 3x2 opaque image whose pixels are all distinct.
func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			img.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(100 * y), B: 7, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func flushOne(t *testing.T, dev Device, p *load.Pending[Device]) error {
	t.Helper()
	q := load.NewQueue[Device]()
	q.Push(p)
	_, err := q.Drain(dev)
	p.Release()
	return err
}

func TestTextureUploadPNG(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("checker")
	src := testImage()

	p, err := NewTextureUpload(tex, encodePNG(t, src))
	if err != nil {
		t.Fatalf("NewTextureUpload: %v", err)
	}
	if tex.Ready() || tex.ID() != 0 {
		t.Fatal("texture resident before drain")
	}
	if err := flushOne(t, dev, p); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	if !tex.Ready() {
		t.Fatalf("state = %v, want Resident", tex.State())
	}
	if w, h := tex.Size(); w != 3 || h != 2 {
		t.Errorf("Size = %dx%d, want 3x2", w, h)
	}
	if tex.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", tex.Format())
	}
	stored, ok := dev.Texture(tex.ID())
	if !ok {
		t.Fatal("texture not on device")
	}
	if !bytes.Equal(stored.Pixels, src.Pix) {
		t.Errorf("pixels = %v, want %v", stored.Pixels, src.Pix)
	}
	if stored.Desc.Label != "checker" {
		t.Errorf("label = %q, want %q", stored.Desc.Label, "checker")
	}
}

func TestTextureUploadFlipVertical(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("flipped")
	src := testImage()

	p, err := NewTextureUpload(tex, encodePNG(t, src), WithFlipVertical())
	if err != nil {
		t.Fatal(err)
	}
	if err := flushOne(t, dev, p); err != nil {
		t.Fatal(err)
	}

	stored, _ := dev.Texture(tex.ID())
	row := 3 * 4
	if !bytes.Equal(stored.Pixels[:row], src.Pix[row:]) {
		t.Errorf("first row = %v, want last source row %v", stored.Pixels[:row], src.Pix[row:])
	}
	if !bytes.Equal(stored.Pixels[row:], src.Pix[:row]) {
		t.Errorf("last row = %v, want first source row %v", stored.Pixels[row:], src.Pix[:row])
	}
}

func TestTextureUploadUsage(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("storage")
	p, err := NewTextureUpload(tex, encodePNG(t, testImage()), WithTextureUsage(gputypes.TextureUsageStorageBinding))
	if err != nil {
		t.Fatal(err)
	}
	if err := flushOne(t, dev, p); err != nil {
		t.Fatal(err)
	}
	stored, _ := dev.Texture(tex.ID())
	if stored.Desc.Usage&gputypes.TextureUsageStorageBinding == 0 {
		t.Errorf("usage = %v, want StorageBinding set", stored.Desc.Usage)
	}
}

func TestImageUploadSubImage(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("sub")
	src := testImage()
	sub := src.SubImage(image.Rect(1, 1, 3, 2))

	if err := flushOne(t, dev, NewImageUpload(tex, sub)); err != nil {
		t.Fatal(err)
	}
	if w, h := tex.Size(); w != 2 || h != 1 {
		t.Fatalf("Size = %dx%d, want 2x1", w, h)
	}
	stored, _ := dev.Texture(tex.ID())
	want := src.Pix[src.PixOffset(1, 1):src.PixOffset(3, 1)]
	if !bytes.Equal(stored.Pixels, want) {
		t.Errorf("pixels = %v, want %v", stored.Pixels, want)
	}
}

func TestTextureUploadRejectsNonImage(t *testing.T) {
	tex := NewTexture("text")
	_, err := NewTextureUpload(tex, []byte("definitely not an image"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
}

func TestTextureUploadDecodeFailure(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("truncated")
	data := encodePNG(t, testImage())[:20]

	p, err := NewTextureUpload(tex, data)
	if err != nil {
		t.Fatalf("NewTextureUpload: %v", err)
	}
	err = flushOne(t, dev, p)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Drain error = %v, want ErrUnsupportedImage", err)
	}
	if tex.State() != StateFailed || tex.Err() == nil {
		t.Errorf("state = %v, want Failed", tex.State())
	}
	if dev.Stats().TexturesCreated != 0 {
		t.Error("texture created for undecodable data")
	}
}

func TestTextureUploadDeviceFailure(t *testing.T) {
	dev := NewHeadlessDevice()
	dev.FailWith(errors.New("no memory"))
	tex := NewTexture("t")

	err := flushOne(t, dev, NewImageUpload(tex, testImage()))
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("Drain error = %v, want ErrUploadFailed", err)
	}
	if tex.Ready() || tex.ID() != 0 {
		t.Error("failed texture is resident")
	}
}

func TestTextureUploadDiscarded(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("cancelled")
	p := NewImageUpload(tex, testImage())

	q := load.NewQueue[Device]()
	q.Push(p)
	p.Release()
	stats, err := q.Drain(dev)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Discarded != 1 || stats.Uploaded != 0 {
		t.Errorf("stats = %+v, want 1 discarded", stats)
	}
	if tex.State() != StateUnloaded {
		t.Errorf("state = %v, want Unloaded", tex.State())
	}
	if dev.Stats().TexturesCreated != 0 {
		t.Error("discarded upload created a texture")
	}
}

func TestTextureRelease(t *testing.T) {
	dev := NewHeadlessDevice()
	tex := NewTexture("t")
	if err := flushOne(t, dev, NewImageUpload(tex, testImage())); err != nil {
		t.Fatal(err)
	}

	tex.Retain()
	tex.Release()
	if dev.Stats().TexturesLive != 1 {
		t.Fatal("texture destroyed while still owned")
	}
	tex.Release()
	if tex.State() != StateReleased {
		t.Errorf("state = %v, want Released", tex.State())
	}
	if dev.Stats().TexturesLive != 0 {
		t.Error("texture not destroyed by last Release")
	}
	if w, h := tex.Size(); w != 0 || h != 0 {
		t.Errorf("Size after release = %dx%d, want 0x0", w, h)
	}
}
