// Command g3dscene builds a scene file on a headless device and reports
// the GPU resources the scene needs.
//
// Usage:
//
//	g3dscene -scene scene.yaml
//	g3dscene -init scene.toml
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/gogpu/gputypes"
	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/internal/scenefile"
	"github.com/gogpu/g3d/load"
	"github.com/gogpu/g3d/render"
	"github.com/gogpu/g3d/shape"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file to build (.yaml, .yml or .toml)")
		initPath  = flag.String("init", "", "write a sample scene to this file and exit")
		verbose   = flag.Bool("v", false, "log uploads to stderr")
		progress  = flag.Bool("progress", true, "show a progress bar while uploading")
	)
	flag.Parse()

	if *initPath != "" {
		if err := scenefile.Save(*initPath, scenefile.Sample()); err != nil {
			log.Fatalf("Failed to write sample: %v", err)
		}
		log.Printf("Sample scene written to %s\n", *initPath)
		return
	}
	if *scenePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		g3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	s, err := scenefile.Load(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}
	if err := run(os.Stdout, s, *progress); err != nil {
		log.Fatal(err)
	}
}

// object is what every shape type offers the builder.
type object interface {
	Ready() bool
	Draw(render.DrawPass) bool
	Close() error
}

type built struct {
	label  string
	kind   string
	object object
}

func run(w io.Writer, s *scenefile.Scene, showProgress bool) error {
	dev := render.NewHeadlessDevice()
	ctx, err := render.NewContext(render.WithDevice(dev))
	if err != nil {
		return err
	}
	defer ctx.Close()

	objects := make([]built, 0, len(s.Objects))
	defer func() {
		for _, b := range objects {
			b.object.Close()
		}
	}()
	for i := range s.Objects {
		o := &s.Objects[i]
		obj, err := buildObject(ctx, s, o)
		if err != nil {
			return fmt.Errorf("object %s: %w", o.Label(i), err)
		}
		objects = append(objects, built{label: o.Label(i), kind: o.Type, object: obj})
	}

	fonts := make([]*render.Font, 0, len(s.Fonts))
	uploads := make([]*load.Pending[render.Device], 0, len(s.Fonts))
	defer func() {
		for i, f := range fonts {
			uploads[i].Release()
			f.Release()
		}
	}()
	for _, f := range s.Fonts {
		font, p, err := loadFont(ctx, s.Resolve(f.Path), f)
		if err != nil {
			return fmt.Errorf("font %s: %w", f.Path, err)
		}
		fonts = append(fonts, font)
		uploads = append(uploads, p)
	}

	var (
		opts []load.DrainOption
		bar  *progressbar.ProgressBar
	)
	if showProgress && ctx.Queue().Len() > 0 {
		bar = progressbar.Default(int64(ctx.Queue().Len()), "uploading")
		opts = append(opts, load.WithProgress(func(done, _ int) {
			_ = bar.Set(done)
		}))
	}
	stats, flushErr := ctx.Flush(opts...)
	if bar != nil {
		_ = bar.Finish()
	}
	if flushErr != nil {
		g3d.Logger().Warn("g3dscene: some uploads failed", "error", flushErr)
	}

	pass := &statPass{}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT\tTYPE\tREADY")
	for _, b := range objects {
		b.object.Draw(pass)
		fmt.Fprintf(tw, "%s\t%s\t%v\n", b.label, b.kind, b.object.Ready())
	}
	for _, f := range fonts {
		fmt.Fprintf(tw, "%s\tfont\t%v\n", f.Label(), f.Ready())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ds := dev.Stats()
	cs := ctx.Cache().Stats()
	ms := shape.ModelCacheStats()
	fmt.Fprintf(w, "\nuploads:  %d applied, %d discarded, %d failed\n", stats.Uploaded, stats.Discarded, stats.Failed)
	fmt.Fprintf(w, "buffers:  %d live, %d created\n", ds.BuffersLive, ds.BuffersCreated)
	fmt.Fprintf(w, "textures: %d live, %d created\n", ds.TexturesLive, ds.TexturesCreated)
	fmt.Fprintf(w, "bytes:    %d\n", ds.BytesUploaded)
	fmt.Fprintf(w, "geometry: %d shared meshes, %d hits, %d misses\n", cs.Entries, cs.Hits, cs.Misses)
	fmt.Fprintf(w, "models:   %d parsed, %d hits\n", ms.Entries, ms.Hits)
	fmt.Fprintf(w, "draws:    %d calls, %d indices\n", pass.draws, pass.indices)
	return flushErr
}

func buildObject(ctx *render.Context, s *scenefile.Scene, o *scenefile.Object) (*shape.Object, error) {
	var obj *shape.Object
	switch o.Type {
	case scenefile.TypeCube:
		c, err := shape.NewCube(ctx, o.Size[0], o.Size[1], o.Size[2])
		if err != nil {
			return nil, err
		}
		obj = &c.Object
	case scenefile.TypeCylinder:
		c, err := shape.NewCylinder(ctx, o.Diameter, o.Length)
		if err != nil {
			return nil, err
		}
		obj = &c.Object
	case scenefile.TypeSphere:
		sp, err := shape.NewSphere(ctx, o.Diameter)
		if err != nil {
			return nil, err
		}
		obj = &sp.Object
	case scenefile.TypeLine:
		l, err := shape.NewLine(ctx, o.Thickness, o.From.V3(), o.To.V3())
		if err != nil {
			return nil, err
		}
		obj = &l.Object
	case scenefile.TypeModel:
		m, err := shape.LoadModel(ctx, s.Resolve(o.Path), o.Smooth)
		if err != nil {
			return nil, err
		}
		obj = &m.Object
	default:
		return nil, fmt.Errorf("unknown type %q", o.Type)
	}

	// Lines place themselves from their end points.
	if o.Type != scenefile.TypeLine {
		obj.SetTranslation(o.Position.V3())
		obj.SetRotation(o.Euler())
	}
	obj.SetScale(o.ScaleOrOne())
	obj.SetHidden(o.Hidden)
	if o.Color != "" {
		c, err := scenefile.ParseColor(o.Color)
		if err != nil {
			obj.Close()
			return nil, err
		}
		obj.SetColor(c)
	}
	if o.Texture != "" {
		if err := setTexture(obj, s.Resolve(o.Texture), o.FlipTexture); err != nil {
			obj.Close()
			return nil, err
		}
	}
	return obj, nil
}

func setTexture(obj *shape.Object, path string, flip bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var opts []render.TextureOption
	if flip {
		opts = append(opts, render.WithFlipVertical())
	}
	return obj.SetTexture(data, opts...)
}

// loadFont queues the atlas upload of f. The caller keeps the returned
// pending alive until the context has been flushed.
func loadFont(ctx *render.Context, path string, f scenefile.Font) (*render.Font, *load.Pending[render.Device], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	opts := []render.FontOption{render.WithSize(f.Size)}
	if f.Runes != "" {
		opts = append(opts, render.WithRunes(f.Runes))
	}
	font := render.NewFont(path)
	p, err := render.NewFontUpload(font, data, opts...)
	if err != nil {
		font.Release()
		return nil, nil, err
	}
	ctx.Enqueue(p)
	return font, p, nil
}

// statPass counts the draw calls the scene issues.
type statPass struct {
	draws   int
	indices int
}

func (p *statPass) SetVertexBuffer(uint32, render.BufferID)              {}
func (p *statPass) SetIndexBuffer(render.BufferID, gputypes.IndexFormat) {}

func (p *statPass) DrawIndexed(indexCount, _ uint32) {
	p.draws++
	p.indices += int(indexCount)
}
