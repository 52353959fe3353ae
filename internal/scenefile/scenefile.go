// Package scenefile reads and writes the scene descriptions consumed by
// cmd/g3dscene. A scene lists primitive shapes, OBJ models and font atlases
// to build on a render context. Both YAML and TOML are accepted; the format
// follows the file extension.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/g3d"
)

// Format is a scene file encoding.
type Format int

// Supported formats.
const (
	FormatYAML Format = iota
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

var (
	// ErrUnknownFormat is returned for file extensions other than
	// .yaml, .yml and .toml.
	ErrUnknownFormat = errors.New("scenefile: unknown format")

	// ErrInvalidScene wraps every validation failure.
	ErrInvalidScene = errors.New("scenefile: invalid scene")
)

// Object types.
const (
	TypeCube     = "cube"
	TypeCylinder = "cylinder"
	TypeSphere   = "sphere"
	TypeLine     = "line"
	TypeModel    = "model"
)

// Vec is a three component vector as written in scene files.
type Vec [3]float32

// V3 converts v.
func (v Vec) V3() g3d.Vec3 {
	return g3d.V3(v[0], v[1], v[2])
}

// Scene is a decoded scene file.
type Scene struct {
	Name    string   `yaml:"name,omitempty" toml:"name,omitempty"`
	Objects []Object `yaml:"objects" toml:"objects"`
	Fonts   []Font   `yaml:"fonts,omitempty" toml:"fonts,omitempty"`

	dir string
}

// Object describes one shape. Which dimension fields apply depends on Type.
type Object struct {
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`
	Type string `yaml:"type" toml:"type"`

	// cube
	Size *Vec `yaml:"size,omitempty" toml:"size,omitempty"`
	// cylinder, sphere
	Diameter float32 `yaml:"diameter,omitempty" toml:"diameter,omitempty"`
	// cylinder
	Length float32 `yaml:"length,omitempty" toml:"length,omitempty"`
	// line
	From      *Vec    `yaml:"from,omitempty" toml:"from,omitempty"`
	To        *Vec    `yaml:"to,omitempty" toml:"to,omitempty"`
	Thickness float32 `yaml:"thickness,omitempty" toml:"thickness,omitempty"`
	// model
	Path   string `yaml:"path,omitempty" toml:"path,omitempty"`
	Smooth bool   `yaml:"smooth,omitempty" toml:"smooth,omitempty"`

	Position Vec  `yaml:"position,omitempty" toml:"position,omitempty"`
	Rotation Vec  `yaml:"rotation,omitempty" toml:"rotation,omitempty"` // degrees: roll, pitch, yaw
	Scale    *Vec `yaml:"scale,omitempty" toml:"scale,omitempty"`

	Color       string `yaml:"color,omitempty" toml:"color,omitempty"`
	Texture     string `yaml:"texture,omitempty" toml:"texture,omitempty"`
	FlipTexture bool   `yaml:"flip_texture,omitempty" toml:"flip_texture,omitempty"`
	Hidden      bool   `yaml:"hidden,omitempty" toml:"hidden,omitempty"`
}

// Font describes a font atlas to rasterize.
type Font struct {
	Path  string  `yaml:"path" toml:"path"`
	Size  float64 `yaml:"size,omitempty" toml:"size,omitempty"`
	Runes string  `yaml:"runes,omitempty" toml:"runes,omitempty"`
}

// FormatOf picks the format from the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads, parses and validates the scene at path. Relative model,
// texture and font paths resolve against the directory of path.
func Load(path string) (*Scene, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes and validates a scene. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Scene, error) {
	var s Scene
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks object types and the fields each type requires.
func (s *Scene) Validate() error {
	if len(s.Objects) == 0 && len(s.Fonts) == 0 {
		return fmt.Errorf("%w: scene is empty", ErrInvalidScene)
	}
	for i := range s.Objects {
		if err := s.Objects[i].validate(); err != nil {
			return fmt.Errorf("%w: object %d (%s): %w", ErrInvalidScene, i, s.Objects[i].Label(i), err)
		}
	}
	for i, f := range s.Fonts {
		if f.Path == "" {
			return fmt.Errorf("%w: font %d: missing path", ErrInvalidScene, i)
		}
		if f.Size < 0 {
			return fmt.Errorf("%w: font %d: negative size", ErrInvalidScene, i)
		}
	}
	return nil
}

func (o *Object) validate() error {
	switch o.Type {
	case TypeCube:
		if o.Size == nil {
			return errors.New("missing size")
		}
	case TypeCylinder:
		if o.Diameter <= 0 || o.Length <= 0 {
			return errors.New("diameter and length must be positive")
		}
	case TypeSphere:
		if o.Diameter <= 0 {
			return errors.New("diameter must be positive")
		}
	case TypeLine:
		if o.From == nil || o.To == nil {
			return errors.New("missing from or to")
		}
		if o.Thickness <= 0 {
			return errors.New("thickness must be positive")
		}
	case TypeModel:
		if o.Path == "" {
			return errors.New("missing path")
		}
	case "":
		return errors.New("missing type")
	default:
		return fmt.Errorf("unknown type %q", o.Type)
	}
	if o.Color != "" {
		if _, err := ParseColor(o.Color); err != nil {
			return err
		}
	}
	return nil
}

// Label returns the object name, or type#index when it has none.
func (o *Object) Label(index int) string {
	if o.Name != "" {
		return o.Name
	}
	return o.Type + "#" + strconv.Itoa(index)
}

// Euler converts the rotation from degrees.
func (o *Object) Euler() g3d.Euler {
	const rad = 0.017453292519943295
	return g3d.Euler{
		Roll:  o.Rotation[0] * rad,
		Pitch: o.Rotation[1] * rad,
		Yaw:   o.Rotation[2] * rad,
	}
}

// ScaleOrOne returns the scale, defaulting to 1 on every axis.
func (o *Object) ScaleOrOne() g3d.Vec3 {
	if o.Scale == nil {
		return g3d.V3(1, 1, 1)
	}
	return o.Scale.V3()
}

// Resolve returns path joined to the scene directory unless it is absolute.
func (s *Scene) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" or a CSS color name.
func ParseColor(s string) (color.NRGBA, error) {
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Encode writes s in the given format.
func Encode(w io.Writer, s *Scene, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(s)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// Save writes s to path in the format named by its extension.
func Save(path string, s *Scene) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Sample returns a small scene using every primitive type.
func Sample() *Scene {
	return &Scene{
		Name: "sample",
		Objects: []Object{
			{Name: "floor", Type: TypeCube, Size: &Vec{10, 10, 0.1}, Position: Vec{0, 0, -0.05}, Color: "gray"},
			{Name: "crate", Type: TypeCube, Size: &Vec{1, 1, 1}, Position: Vec{-2, 0, 0.5}, Rotation: Vec{0, 0, 30}, Color: "#c08040"},
			{Name: "pillar", Type: TypeCylinder, Diameter: 0.5, Length: 3, Position: Vec{2, 0, 0}},
			{Name: "ball", Type: TypeSphere, Diameter: 1, Position: Vec{0, 2, 0.5}, Color: "tomato"},
			{Name: "axis", Type: TypeLine, From: &Vec{0, 0, 0}, To: &Vec{0, 0, 2}, Thickness: 0.05, Color: "#0000ff"},
		},
	}
}
