package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/automdl/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// quad returns a unit square in the XY plane split into two triangles.
func quad(name string) *Mesh {
	m := New(name)
	m.AddVertex(v3.Vec{X: 0, Y: 0}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 1, Y: 0}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 1, Y: 1}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 0, Y: 1}, v3.Vec{})
	m.Triangles = []Triangle{
		{Verts: [3]int{0, 1, 2}, Material: NoMaterial},
		{Verts: [3]int{0, 2, 3}, Material: NoMaterial},
	}
	return m
}

func near(a, b v3.Vec) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestEdges(t *testing.T) {
	m := quad("quad")
	m.LooseEdges = [][2]int{{3, 3}, {2, 0}}
	got := m.Edges()
	want := [][2]int{{0, 1}, {1, 2}, {2, 0}, {2, 3}, {3, 0}}
	if len(got) != len(want) {
		t.Fatalf("Edges() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edges()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestVertexIndices(t *testing.T) {
	m := quad("quad")
	got := m.VertexIndices()
	for i, v := range got {
		if v != i {
			t.Fatalf("VertexIndices() = %v", got)
		}
	}
	if len(got) != m.VertexCount() {
		t.Errorf("len(VertexIndices()) = %d, want %d", len(got), m.VertexCount())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Mesh)
		wantErr bool
	}{
		{"valid", func(m *Mesh) {}, false},
		{"valid with slot", func(m *Mesh) { m.Triangles[0].Material = m.Slot("wood") }, false},
		{"corner out of range", func(m *Mesh) { m.Triangles[1].Verts[2] = 4 }, true},
		{"negative corner", func(m *Mesh) { m.Triangles[0].Verts[0] = -1 }, true},
		{"material out of range", func(m *Mesh) { m.Triangles[0].Material = 0 }, true},
		{"loose edge out of range", func(m *Mesh) { m.LooseEdges = [][2]int{{0, 9}} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad("quad")
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("Validate() error = %v, want ErrInvalidMesh", err)
			}
		})
	}
}

func TestSlot(t *testing.T) {
	m := New("m")
	if got := m.Slot("a"); got != 0 {
		t.Errorf("Slot(a) = %d, want 0", got)
	}
	if got := m.Slot("b"); got != 1 {
		t.Errorf("Slot(b) = %d, want 1", got)
	}
	if got := m.Slot("a"); got != 0 {
		t.Errorf("Slot(a) again = %d, want 0", got)
	}
	if !m.HasMaterials() || len(m.MaterialSlots) != 2 {
		t.Errorf("MaterialSlots = %v", m.MaterialSlots)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(v3.Vec{X: 3, Y: 4}); !near(got, v3.Vec{X: 0.6, Y: 0.8}) {
		t.Errorf("Normalize(3,4,0) = %v", got)
	}
	if got := Normalize(v3.Vec{}); got != (v3.Vec{}) {
		t.Errorf("Normalize(0) = %v, want zero", got)
	}
}

func TestComputeVertexNormals(t *testing.T) {
	m := quad("quad")
	m.AddVertex(v3.Vec{X: 5}, v3.Vec{X: 1})
	m.ComputeVertexNormals()
	for i := 0; i < 4; i++ {
		if !near(m.Vertices[i].Normal, v3.Vec{Z: 1}) {
			t.Errorf("vertex %d normal = %v, want +Z", i, m.Vertices[i].Normal)
		}
	}
	if m.Vertices[4].Normal != (v3.Vec{}) {
		t.Errorf("unused vertex normal = %v, want zero", m.Vertices[4].Normal)
	}
}

func TestRemoveDegenerate(t *testing.T) {
	m := quad("quad")
	m.AddVertex(v3.Vec{X: 2}, v3.Vec{})
	m.Triangles = append(m.Triangles,
		Triangle{Verts: [3]int{0, 0, 1}},
		Triangle{Verts: [3]int{0, 1, 4}}, // collinear
	)
	if got := m.RemoveDegenerate(); got != 2 {
		t.Errorf("RemoveDegenerate() = %d, want 2", got)
	}
	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
}

func TestRemoveUnreferencedVertices(t *testing.T) {
	m := New("m")
	m.AddVertex(v3.Vec{X: 9}, v3.Vec{}) // unused
	m.AddVertex(v3.Vec{X: 0}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 1}, v3.Vec{})
	m.AddVertex(v3.Vec{Y: 1}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 7}, v3.Vec{}) // unused
	m.Triangles = []Triangle{{Verts: [3]int{1, 2, 3}, Material: NoMaterial}}

	if got := m.RemoveUnreferencedVertices(); got != 2 {
		t.Fatalf("RemoveUnreferencedVertices() = %d, want 2", got)
	}
	if m.Triangles[0].Verts != [3]int{0, 1, 2} {
		t.Errorf("Verts = %v, want [0 1 2]", m.Triangles[0].Verts)
	}
	if m.Vertices[0].Position != (v3.Vec{X: 0}) || m.Vertices[2].Position != (v3.Vec{Y: 1}) {
		t.Errorf("vertices not compacted in order: %v", m.Vertices)
	}
}

func TestAppend(t *testing.T) {
	dst := quad("prop")
	dst.Triangles[0].Material = dst.Slot("wood")
	dst.HasUVs = true

	src := quad("lid")
	src.Triangles[0].Material = src.Slot("metal")
	src.Triangles[1].Material = src.Slot("wood")
	src.LooseEdges = [][2]int{{0, 2}}
	src.HasUVs = true

	dst.Append(src)

	if dst.VertexCount() != 8 || dst.TriangleCount() != 4 {
		t.Fatalf("counts = %d/%d, want 8/4", dst.VertexCount(), dst.TriangleCount())
	}
	if dst.Triangles[2].Verts != [3]int{4, 5, 6} {
		t.Errorf("appended verts = %v, want offset by 4", dst.Triangles[2].Verts)
	}
	if got := dst.MaterialSlots; len(got) != 2 || got[0] != "wood" || got[1] != "metal" {
		t.Errorf("MaterialSlots = %v, want [wood metal]", got)
	}
	if dst.Triangles[2].Material != 1 || dst.Triangles[3].Material != 0 {
		t.Errorf("remapped materials = %d, %d, want 1, 0", dst.Triangles[2].Material, dst.Triangles[3].Material)
	}
	if dst.LooseEdges[0] != [2]int{4, 6} {
		t.Errorf("LooseEdges = %v, want [[4 6]]", dst.LooseEdges)
	}
	if !dst.HasUVs {
		t.Error("HasUVs = false, want true")
	}
	if err := dst.Validate(); err != nil {
		t.Errorf("Validate() after Append = %v", err)
	}

	noUV := quad("plain")
	dst.Append(noUV)
	if dst.HasUVs {
		t.Error("HasUVs survived appending a mesh without UVs")
	}
}

func TestAppendIntoEmpty(t *testing.T) {
	dst := New("prop")
	src := quad("part")
	src.HasUVs = true
	dst.Append(src)
	if !dst.HasUVs || dst.TriangleCount() != 2 {
		t.Errorf("Append into empty: HasUVs=%v triangles=%d", dst.HasUVs, dst.TriangleCount())
	}
}

func TestProjectUVs(t *testing.T) {
	m := New("wall")
	// A triangle facing +X: UVs come from Y and Z.
	m.AddVertex(v3.Vec{X: 1, Y: 0, Z: 0}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 1, Y: 2, Z: 0}, v3.Vec{})
	m.AddVertex(v3.Vec{X: 1, Y: 0, Z: 3}, v3.Vec{})
	m.Triangles = []Triangle{{Verts: [3]int{0, 1, 2}, Material: NoMaterial}}

	m.ProjectUVs(0.5)
	if !m.HasUVs {
		t.Fatal("HasUVs = false after ProjectUVs")
	}
	want := [3]UV{{0, 0}, {1, 0}, {0, 1.5}}
	if m.Triangles[0].UVs != want {
		t.Errorf("UVs = %v, want %v", m.Triangles[0].UVs, want)
	}
}

// soup builds a kernel soup from unshared triangle corners.
func soup(name string, tris ...[3]v3.Vec) *kernel.Mesh {
	s := &kernel.Mesh{PartName: name}
	for _, tri := range tris {
		for _, p := range tri {
			s.Indices = append(s.Indices, uint32(len(s.Vertices)/3))
			s.Vertices = append(s.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			s.Normals = append(s.Normals, 0, 0, 1)
		}
	}
	return s
}

func TestWeld(t *testing.T) {
	a, b, c, d := v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}
	s := soup("panel",
		[3]v3.Vec{a, b, c},
		[3]v3.Vec{a, c, d},
		[3]v3.Vec{a, a, b}, // degenerate after welding
	)
	s.Material = "plywood"
	s.Smooth = true

	m, err := Weld(s, 0)
	if err != nil {
		t.Fatalf("Weld() error = %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", m.VertexCount())
	}
	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
	if m.Name != "panel" || len(m.MaterialSlots) != 1 || m.MaterialSlots[0] != "plywood" {
		t.Errorf("name/slots = %q/%v", m.Name, m.MaterialSlots)
	}
	for i, tri := range m.Triangles {
		if !tri.Smooth || tri.Material != 0 {
			t.Errorf("triangle %d smooth=%v material=%d", i, tri.Smooth, tri.Material)
		}
	}
	for i, v := range m.Vertices {
		if !near(v.Normal, v3.Vec{Z: 1}) {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}
	if m.HasUVs {
		t.Error("welded mesh should not have a UV layer")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWeldMergesWithinEpsilon(t *testing.T) {
	s := soup("jitter",
		[3]v3.Vec{{}, {X: 1}, {Y: 1}},
		[3]v3.Vec{{X: 1.000001}, {X: 1, Y: 1}, {Y: 1.000001}},
	)
	m, err := Weld(s, 1e-4)
	if err != nil {
		t.Fatalf("Weld() error = %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", m.VertexCount())
	}
	if got := len(m.Edges()); got != 5 {
		t.Errorf("len(Edges()) = %d, want 5 (shared diagonal)", got)
	}
}

func TestWeldErrors(t *testing.T) {
	tests := []struct {
		name string
		soup *kernel.Mesh
	}{
		{"ragged vertices", &kernel.Mesh{Vertices: []float32{0, 0}}},
		{"ragged indices", &kernel.Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 0}}},
		{"index out of range", &kernel.Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Weld(tt.soup, 0); !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("Weld() error = %v, want ErrInvalidMesh", err)
			}
		})
	}
}
