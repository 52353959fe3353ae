package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/g3d"
)

// ErrInvalidOBJ is returned when a Wavefront OBJ stream cannot be parsed.
var ErrInvalidOBJ = errors.New("mesh: invalid OBJ data")

// objDecoder accumulates the attribute pools and the triangle soup built
// from the face lines.
type objDecoder struct {
	line int

	positions []g3d.Vec3
	normals   []g3d.Vec3
	uvs       []g3d.Vec2

	soupV []g3d.Vec3
	soupN []g3d.Vec3
	soupT []g3d.Vec2

	allNormals bool
	allUVs     bool
}

// ParseOBJ reads Wavefront OBJ geometry from r.
//
// Supported statements are v, vt, vn and f. Faces may reference their
// corners as v, v/t, v//n or v/t/n, with negative indices counting back
// from the last attribute read. Polygons are triangulated as fans. Other
// statements (o, g, s, usemtl, mtllib) are ignored.
//
// Normals from the file are used only when every face corner has one;
// otherwise they are synthesized, smooth or flat. The same rule applies to
// texture coordinates, which are dropped unless every corner has one.
func ParseOBJ(r io.Reader, smooth bool) (*Mesh, error) {
	dec := &objDecoder{allNormals: true, allUVs: true}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		dec.line++
		if err := dec.parseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mesh: read OBJ: %w", err)
	}
	if len(dec.soupV) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrInvalidOBJ)
	}

	var tex []g3d.Vec2
	if dec.allUVs {
		tex = dec.soupT
	}
	if dec.allNormals {
		return FromTrianglesWithNormals(dec.soupV, dec.soupN, tex)
	}
	return FromTriangles(dec.soupV, tex, smooth)
}

// LoadOBJ parses the OBJ file at path.
func LoadOBJ(path string, smooth bool) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open OBJ: %w", err)
	}
	defer f.Close()

	m, err := ParseOBJ(f, smooth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (dec *objDecoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidOBJ, dec.line, fmt.Sprintf(format, args...))
}

func (dec *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "v":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		dec.positions = append(dec.positions, g3d.V3(v[0], v[1], v[2]))
	case "vn":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		dec.normals = append(dec.normals, g3d.V3(v[0], v[1], v[2]).Normalize())
	case "vt":
		v, err := dec.parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		dec.uvs = append(dec.uvs, g3d.V2(v[0], v[1]))
	case "f":
		return dec.parseFace(fields[1:])
	}
	return nil
}

func (dec *objDecoder) parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, dec.errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, dec.errorf("bad number %q", fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

// objCorner is one resolved face corner; -1 marks a missing attribute.
type objCorner struct {
	v, t, n int
}

func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return dec.errorf("face with %d corners", len(fields))
	}
	corners := make([]objCorner, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		c := objCorner{t: -1, n: -1}
		var err error
		if c.v, err = dec.resolve(parts[0], len(dec.positions), "vertex"); err != nil {
			return err
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.t, err = dec.resolve(parts[1], len(dec.uvs), "texture"); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.n, err = dec.resolve(parts[2], len(dec.normals), "normal"); err != nil {
				return err
			}
		}
		corners[i] = c
	}
	for i := 1; i+1 < len(corners); i++ {
		dec.emit(corners[0])
		dec.emit(corners[i])
		dec.emit(corners[i+1])
	}
	return nil
}

// resolve converts a 1-based (or negative, relative) OBJ index into a
// 0-based index into a pool of size n.
func (dec *objDecoder) resolve(s string, n int, what string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, dec.errorf("bad %s index %q", what, s)
	}
	idx := v - 1
	if v < 0 {
		idx = n + v
	}
	if v == 0 || idx < 0 || idx >= n {
		return 0, dec.errorf("%s index %d out of range (have %d)", what, v, n)
	}
	return idx, nil
}

func (dec *objDecoder) emit(c objCorner) {
	dec.soupV = append(dec.soupV, dec.positions[c.v])
	if c.n >= 0 {
		dec.soupN = append(dec.soupN, dec.normals[c.n])
	} else {
		dec.soupN = append(dec.soupN, g3d.Vec3{})
		dec.allNormals = false
	}
	if c.t >= 0 {
		dec.soupT = append(dec.soupT, dec.uvs[c.t])
	} else {
		dec.soupT = append(dec.soupT, g3d.Vec2{})
		dec.allUVs = false
	}
}
