// Package smd serializes triangle meshes to the StudioMDL SMD text format
// consumed by the model compiler.
//
// A file is the fixed Header, one record per triangle and the Trailer. Each
// record is a material line followed by one line per corner:
//
//	<material>
//	0  <px> <py> <pz>  <nx> <ny> <nz>  <u> <v> 0
//
// Every numeric field carries exactly six decimals. Corner order is kept as
// given since it defines the winding.
package smd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/automdl/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Header is the preamble of every SMD file: a single root node with a
// static skeleton frame, then the triangles block.
const Header = "version 1\nnodes\n0 \"root\" -1\nend\nskeleton\ntime 0\n0 0 0 0 0 0 0\nend\ntriangles\n"

// Trailer closes the triangles block.
const Trailer = "end\n"

var (
	// ErrNoUVLayer is returned when a mesh has no active UV layer.
	ErrNoUVLayer = errors.New("smd: mesh has no UV layer")

	// ErrVertexIndex is returned when a triangle corner references a missing vertex.
	ErrVertexIndex = errors.New("smd: triangle references missing vertex")
)

// Corner is one resolved triangle corner.
type Corner struct {
	Position v3.Vec
	Normal   v3.Vec
	UV       mesh.UV
}

// FlatNormal returns the unit normal of triangle ABC, (B-A) x (C-A)
// normalized. Zero-area triangles have no meaningful normal and yield the
// zero vector.
func FlatNormal(a, b, c v3.Vec) v3.Vec {
	return mesh.Normalize(b.Sub(a).Cross(c.Sub(a)))
}

// Corners resolves the three corners of tri. Smooth triangles use each
// vertex's own normal; flat triangles use the face normal on all corners.
// UVs are taken per corner.
func Corners(m *mesh.Mesh, tri mesh.Triangle) ([3]Corner, error) {
	var out [3]Corner
	if !m.HasUVs {
		return out, fmt.Errorf("%w: %s", ErrNoUVLayer, m.Name)
	}
	for c, v := range tri.Verts {
		if v < 0 || v >= len(m.Vertices) {
			return out, fmt.Errorf("%w: corner %d references vertex %d of %d", ErrVertexIndex, c, v, len(m.Vertices))
		}
		out[c] = Corner{
			Position: m.Vertices[v].Position,
			Normal:   m.Vertices[v].Normal,
			UV:       tri.UVs[c],
		}
	}
	if !tri.Smooth {
		n := FlatNormal(out[0].Position, out[1].Position, out[2].Position)
		for c := range out {
			out[c].Normal = n
		}
	}
	return out, nil
}

// appendCorner formats one corner line into buf.
func appendCorner(buf []byte, c Corner) []byte {
	buf = append(buf, '0', ' ')
	for _, f := range [...]float64{c.Position.X, c.Position.Y, c.Position.Z} {
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, f, 'f', 6, 64)
	}
	buf = append(buf, ' ')
	for _, f := range [...]float64{c.Normal.X, c.Normal.Y, c.Normal.Z} {
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, f, 'f', 6, 64)
	}
	buf = append(buf, ' ')
	for _, f := range [...]float64{c.UV.U, c.UV.V} {
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, f, 'f', 6, 64)
	}
	return append(buf, " 0\n"...)
}

// appendTriangle appends the record for one triangle to buf.
func appendTriangle(buf []byte, material string, corners [3]Corner) []byte {
	buf = append(buf, material...)
	buf = append(buf, '\n')
	for _, c := range corners {
		buf = appendCorner(buf, c)
	}
	return buf
}

// WriteTriangle writes the record for one triangle to w.
func WriteTriangle(w io.Writer, material string, corners [3]Corner) error {
	_, err := w.Write(appendTriangle(nil, material, corners))
	return err
}

// Check reports the first error Encode would hit for m and policy without
// writing anything: a missing UV layer, a bad vertex index or a triangle the
// policy cannot name.
func Check(m *mesh.Mesh, policy MaterialPolicy) error {
	if !m.HasUVs {
		return fmt.Errorf("%w: %s", ErrNoUVLayer, m.Name)
	}
	for i, tri := range m.Triangles {
		if _, err := policy.MaterialName(tri); err != nil {
			return fmt.Errorf("smd: %s: triangle %d: %w", m.Name, i, err)
		}
		for c, v := range tri.Verts {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("smd: %s: triangle %d: %w: corner %d references vertex %d of %d",
					m.Name, i, ErrVertexIndex, c, v, len(m.Vertices))
			}
		}
	}
	return nil
}

// Encoder writes SMD files.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes m as a complete SMD file, one record per triangle in mesh
// order, naming materials with policy. The mesh is checked first, so a
// rejected mesh writes nothing.
func (e *Encoder) Encode(m *mesh.Mesh, policy MaterialPolicy) error {
	if err := Check(m, policy); err != nil {
		return err
	}
	if _, err := e.w.WriteString(Header); err != nil {
		return err
	}
	for i, tri := range m.Triangles {
		material, err := policy.MaterialName(tri)
		if err != nil {
			return fmt.Errorf("smd: %s: triangle %d: %w", m.Name, i, err)
		}
		corners, err := Corners(m, tri)
		if err != nil {
			return fmt.Errorf("smd: %s: triangle %d: %w", m.Name, i, err)
		}
		if err := WriteTriangle(e.w, material, corners); err != nil {
			return err
		}
	}
	if _, err := e.w.WriteString(Trailer); err != nil {
		return err
	}
	return e.w.Flush()
}

// Encode writes m to w as a complete SMD file.
func Encode(w io.Writer, m *mesh.Mesh, policy MaterialPolicy) error {
	return NewEncoder(w).Encode(m, policy)
}
