// Package obj reads Wavefront OBJ geometry into mesh.Mesh values.
//
// Supported statements are v, vt, vn, f, l, usemtl and s. Polygons are
// fan-triangulated around their first corner. Every other statement
// (o, g, mtllib, vp, ...) is ignored.
package obj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/automdl/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrSyntax is returned for malformed statements.
	ErrSyntax = errors.New("obj: syntax error")

	// ErrIndex is returned for zero or out-of-range element references.
	ErrIndex = errors.New("obj: index out of range")
)

// ref is one corner of a face: indices into the v, vt and vn lists, -1 when
// absent.
type ref struct {
	v, vt, vn int
}

type reader struct {
	m        *mesh.Mesh
	uvs      []mesh.UV
	normals  []v3.Vec
	nsum     []v3.Vec // per-vertex sum of referenced vn
	material int
	smooth   bool
	line     int
	bareFace int // line of the first face with a corner lacking vt
}

// Read parses OBJ text from r into a mesh called name. The UV layer is
// present when the file declares any vt, and then every face corner must
// reference one. Vertex normals are the average of
// the vn entries referencing each vertex, or computed from the faces for
// vertices that have none.
func Read(r io.Reader, name string) (*mesh.Mesh, error) {
	rd := &reader{m: mesh.New(name), material: mesh.NoMaterial}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		rd.line++
		if err := rd.statement(sc.Text()); err != nil {
			return nil, fmt.Errorf("obj: %s: line %d: %w", name, rd.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %s: %w", name, err)
	}
	if rd.m.HasUVs && rd.bareFace > 0 {
		return nil, fmt.Errorf("obj: %s: line %d: %w: face corner has no texture coordinate while the file declares vt",
			name, rd.bareFace, ErrIndex)
	}
	rd.finish()
	return rd.m, nil
}

// Load reads the OBJ file at path. The mesh is named after the file
// without its extension.
func Load(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	base := filepath.Base(path)
	return Read(f, strings.TrimSuffix(base, filepath.Ext(base)))
}

func (rd *reader) statement(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]
	switch fields[0] {
	case "v":
		p, err := floats(args, 3)
		if err != nil {
			return err
		}
		rd.m.AddVertex(v3.Vec{X: p[0], Y: p[1], Z: p[2]}, v3.Vec{})
		rd.nsum = append(rd.nsum, v3.Vec{})
	case "vt":
		p, err := floats(args, 1)
		if err != nil {
			return err
		}
		uv := mesh.UV{U: p[0]}
		if len(p) > 1 {
			uv.V = p[1]
		}
		rd.uvs = append(rd.uvs, uv)
		rd.m.HasUVs = true
	case "vn":
		p, err := floats(args, 3)
		if err != nil {
			return err
		}
		rd.normals = append(rd.normals, v3.Vec{X: p[0], Y: p[1], Z: p[2]})
	case "f":
		return rd.face(args)
	case "l":
		return rd.polyline(args)
	case "usemtl":
		if len(args) == 0 {
			return fmt.Errorf("%w: usemtl without a name", ErrSyntax)
		}
		rd.material = rd.m.Slot(strings.Join(args, " "))
	case "s":
		if len(args) != 1 {
			return fmt.Errorf("%w: s expects one argument", ErrSyntax)
		}
		rd.smooth = args[0] != "off" && args[0] != "0"
	}
	return nil
}

// floats parses at least min leading numbers of args.
func floats(args []string, min int) ([]float64, error) {
	if len(args) < min {
		return nil, fmt.Errorf("%w: expected %d numbers, got %d", ErrSyntax, min, len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrSyntax, a)
		}
		out[i] = f
	}
	return out, nil
}

// resolve converts a 1-based or negative (relative) OBJ index into a
// 0-based index into a list of length n.
func resolve(s string, n int, what string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s index %q", ErrSyntax, what, s)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("%w: %s index %d with %d defined", ErrIndex, what, i, n)
}

// parseRef parses v, v/vt, v//vn or v/vt/vn.
func (rd *reader) parseRef(s string) (ref, error) {
	r := ref{vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 || parts[0] == "" {
		return r, fmt.Errorf("%w: bad face corner %q", ErrSyntax, s)
	}
	var err error
	if r.v, err = resolve(parts[0], len(rd.m.Vertices), "vertex"); err != nil {
		return r, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if r.vt, err = resolve(parts[1], len(rd.uvs), "texture"); err != nil {
			return r, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if r.vn, err = resolve(parts[2], len(rd.normals), "normal"); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (rd *reader) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: face needs at least 3 corners, got %d", ErrSyntax, len(args))
	}
	refs := make([]ref, len(args))
	for i, a := range args {
		r, err := rd.parseRef(a)
		if err != nil {
			return err
		}
		refs[i] = r
		if r.vt < 0 && rd.bareFace == 0 {
			rd.bareFace = rd.line
		}
		if r.vn >= 0 {
			rd.nsum[r.v] = rd.nsum[r.v].Add(rd.normals[r.vn])
		}
	}
	for i := 1; i+1 < len(refs); i++ {
		corners := [3]ref{refs[0], refs[i], refs[i+1]}
		t := mesh.Triangle{Smooth: rd.smooth, Material: rd.material}
		for c, r := range corners {
			t.Verts[c] = r.v
			if r.vt >= 0 {
				t.UVs[c] = rd.uvs[r.vt]
			}
		}
		rd.m.Triangles = append(rd.m.Triangles, t)
	}
	return nil
}

// polyline records consecutive pairs of an l statement as loose edges.
func (rd *reader) polyline(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: line needs at least 2 vertices, got %d", ErrSyntax, len(args))
	}
	prev := -1
	for _, a := range args {
		r, err := rd.parseRef(a)
		if err != nil {
			return err
		}
		if prev >= 0 {
			rd.m.LooseEdges = append(rd.m.LooseEdges, [2]int{prev, r.v})
		}
		prev = r.v
	}
	return nil
}

func (rd *reader) finish() {
	rd.m.ComputeVertexNormals()
	for i, sum := range rd.nsum {
		if n := mesh.Normalize(sum); n != (v3.Vec{}) {
			rd.m.Vertices[i].Normal = n
		}
	}
}
