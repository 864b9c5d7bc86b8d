// Package mesh is the host-independent triangle mesh model shared by the
// readers, the island counter and the SMD serializer.
//
// Positions and normals use the sdfx v3.Vec type so that meshes produced by
// the geometry kernel need no conversion beyond welding.
package mesh

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// NoMaterial marks a triangle without a material slot assignment.
const NoMaterial = -1

// ErrInvalidMesh is returned by Validate for inconsistent meshes.
var ErrInvalidMesh = errors.New("mesh: invalid mesh")

// UV is a texture coordinate.
type UV struct {
	U, V float64
}

// Vertex is a shared mesh vertex. Normal is the (usually averaged) vertex
// normal used by smooth-shaded triangles.
type Vertex struct {
	Position v3.Vec
	Normal   v3.Vec
}

// Triangle references three vertices. UVs are stored per corner, so two
// triangles sharing a vertex may carry different UVs at that vertex.
type Triangle struct {
	Verts    [3]int
	UVs      [3]UV
	Smooth   bool
	Material int // index into Mesh.MaterialSlots, or NoMaterial
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Name          string
	Vertices      []Vertex
	Triangles     []Triangle
	LooseEdges    [][2]int // edges not belonging to any triangle
	HasUVs        bool     // the active UV layer exists
	MaterialSlots []string
}

// New returns an empty mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// HasMaterials reports whether the mesh has any material slot.
func (m *Mesh) HasMaterials() bool {
	return len(m.MaterialSlots) > 0
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(pos, normal v3.Vec) int {
	m.Vertices = append(m.Vertices, Vertex{Position: pos, Normal: normal})
	return len(m.Vertices) - 1
}

// Slot returns the index of the named material slot, adding it if needed.
func (m *Mesh) Slot(name string) int {
	if i := lo.IndexOf(m.MaterialSlots, name); i >= 0 {
		return i
	}
	m.MaterialSlots = append(m.MaterialSlots, name)
	return len(m.MaterialSlots) - 1
}

// VertexIndices returns the vertex index set 0..n-1.
func (m *Mesh) VertexIndices() []int {
	out := make([]int, len(m.Vertices))
	for i := range out {
		out[i] = i
	}
	return out
}

// Edges returns the distinct undirected edges of all triangles followed by
// the loose edges, in first-seen order. Pairs with equal endpoints are
// skipped.
func (m *Mesh) Edges() [][2]int {
	seen := make(map[[2]int]struct{}, len(m.Triangles)*3/2+len(m.LooseEdges))
	edges := make([][2]int, 0, len(m.Triangles)*3/2+len(m.LooseEdges))
	add := func(a, b int) {
		if a == b {
			return
		}
		key := [2]int{a, b}
		if b < a {
			key = [2]int{b, a}
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		edges = append(edges, [2]int{a, b})
	}
	for _, t := range m.Triangles {
		add(t.Verts[0], t.Verts[1])
		add(t.Verts[1], t.Verts[2])
		add(t.Verts[2], t.Verts[0])
	}
	for _, e := range m.LooseEdges {
		add(e[0], e[1])
	}
	return edges
}

// Validate checks that every triangle and loose edge references existing
// vertices and that material indices are NoMaterial or within the slots.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, t := range m.Triangles {
		for c, v := range t.Verts {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: %s: triangle %d corner %d references vertex %d of %d", ErrInvalidMesh, m.Name, i, c, v, n)
			}
		}
		if t.Material != NoMaterial && (t.Material < 0 || t.Material >= len(m.MaterialSlots)) {
			return fmt.Errorf("%w: %s: triangle %d uses material %d of %d slots", ErrInvalidMesh, m.Name, i, t.Material, len(m.MaterialSlots))
		}
	}
	for i, e := range m.LooseEdges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			return fmt.Errorf("%w: %s: loose edge %d (%d, %d) out of range", ErrInvalidMesh, m.Name, i, e[0], e[1])
		}
	}
	return nil
}

// Normalize returns v scaled to unit length, or the zero vector when v has
// zero length.
func Normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 || math.IsNaN(l) {
		return v3.Vec{}
	}
	return v3.Vec{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// faceCross returns the unnormalized (B-A) x (C-A) of a triangle. Its
// length is twice the triangle area.
func (m *Mesh) faceCross(t Triangle) v3.Vec {
	a := m.Vertices[t.Verts[0]].Position
	b := m.Vertices[t.Verts[1]].Position
	c := m.Vertices[t.Verts[2]].Position
	return b.Sub(a).Cross(c.Sub(a))
}

// ComputeVertexNormals sets every vertex normal to the area-weighted average
// of the normals of its triangles. Vertices without triangles get a zero
// normal.
func (m *Mesh) ComputeVertexNormals() {
	acc := make([]v3.Vec, len(m.Vertices))
	for _, t := range m.Triangles {
		n := m.faceCross(t)
		for _, v := range t.Verts {
			acc[v] = acc[v].Add(n)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = Normalize(acc[i])
	}
}

// RemoveDegenerate drops triangles with repeated corners or (near) zero area
// and returns how many were removed.
func (m *Mesh) RemoveDegenerate() int {
	const minArea = 1e-12
	kept := m.Triangles[:0]
	for _, t := range m.Triangles {
		if t.Verts[0] == t.Verts[1] || t.Verts[1] == t.Verts[2] || t.Verts[0] == t.Verts[2] {
			continue
		}
		if m.faceCross(t).Length()*0.5 <= minArea {
			continue
		}
		kept = append(kept, t)
	}
	removed := len(m.Triangles) - len(kept)
	m.Triangles = kept
	return removed
}

// Append adds src's geometry to m. Vertex indices are offset so the two
// meshes stay disconnected; material slots are merged by name. src must be
// valid (see Validate).
func (m *Mesh) Append(src *Mesh) {
	if len(m.Triangles) == 0 && len(m.Vertices) == 0 {
		m.HasUVs = src.HasUVs
	} else {
		m.HasUVs = m.HasUVs && src.HasUVs
	}

	offset := len(m.Vertices)
	m.Vertices = append(m.Vertices, src.Vertices...)

	remap := lo.Map(src.MaterialSlots, func(name string, _ int) int {
		return m.Slot(name)
	})
	for _, t := range src.Triangles {
		for c := range t.Verts {
			t.Verts[c] += offset
		}
		if t.Material != NoMaterial {
			t.Material = remap[t.Material]
		}
		m.Triangles = append(m.Triangles, t)
	}
	for _, e := range src.LooseEdges {
		m.LooseEdges = append(m.LooseEdges, [2]int{e[0] + offset, e[1] + offset})
	}
}

// RemoveUnreferencedVertices drops vertices used by no triangle or loose
// edge, compacting the vertex array and remapping indices. It returns how
// many vertices were removed.
func (m *Mesh) RemoveUnreferencedVertices() int {
	referenced := make([]bool, len(m.Vertices))
	for _, t := range m.Triangles {
		for _, v := range t.Verts {
			referenced[v] = true
		}
	}
	for _, e := range m.LooseEdges {
		referenced[e[0]] = true
		referenced[e[1]] = true
	}

	newIndex := make([]int, len(m.Vertices))
	kept := make([]Vertex, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		if referenced[i] {
			newIndex[i] = len(kept)
			kept = append(kept, v)
		}
	}
	removed := len(m.Vertices) - len(kept)
	if removed == 0 {
		return 0
	}

	for i := range m.Triangles {
		for c, v := range m.Triangles[i].Verts {
			m.Triangles[i].Verts[c] = newIndex[v]
		}
	}
	for i, e := range m.LooseEdges {
		m.LooseEdges[i] = [2]int{newIndex[e[0]], newIndex[e[1]]}
	}
	m.Vertices = kept
	return removed
}
