package island

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chazu/automdl/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// cubeEdges returns the 12 edges of a cube whose 8 corners start at base.
func cubeEdges(base int) [][2]int {
	e := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // bottom
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // top
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // sides
	}
	for i := range e {
		e[i][0] += base
		e[i][1] += base
	}
	return e
}

func TestCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []int
		edges    [][2]int
		want     int
	}{
		{"empty", nil, nil, 0},
		{"single vertex", []int{7}, nil, 1},
		{"isolated vertices", seq(5), nil, 5},
		{"path", seq(4), [][2]int{{0, 1}, {1, 2}, {2, 3}}, 1},
		{"cycle", seq(4), [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}, 1},
		{"star", seq(5), [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}}, 1},
		{"two pairs and a loner", seq(5), [][2]int{{0, 1}, {3, 4}}, 3},
		{"cube", seq(8), cubeEdges(0), 1},
		{"two cubes", seq(16), append(cubeEdges(0), cubeEdges(8)...), 2},
		{"sparse labels", []int{100, -3, 42}, [][2]int{{100, 42}}, 2},
		{"duplicate vertices", []int{1, 1, 2, 2}, nil, 2},
		{"duplicate edges", seq(3), [][2]int{{0, 1}, {1, 0}, {0, 1}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Count(tt.vertices, tt.edges)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountSelfLoopIgnored(t *testing.T) {
	a, err := NewAdjacency(seq(2), [][2]int{{0, 0}, {1, 1}})
	if err != nil {
		t.Fatalf("NewAdjacency() error = %v", err)
	}
	if got := a.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	if n := a.Neighbors(0); len(n) != 0 {
		t.Errorf("Neighbors(0) = %v, want none", n)
	}
}

func TestCountUnknownVertex(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]int
	}{
		{"first endpoint", [][2]int{{9, 0}}},
		{"second endpoint", [][2]int{{0, 9}}},
		{"after valid edges", [][2]int{{0, 1}, {1, 2}, {2, -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Count(seq(3), tt.edges)
			if !errors.Is(err, ErrUnknownVertex) {
				t.Fatalf("Count() error = %v, want ErrUnknownVertex", err)
			}
		})
	}
}

func TestCountOrderIndependent(t *testing.T) {
	// Three components: a 10-cycle, a 6-path, and 4 isolated vertices.
	var edges [][2]int
	for i := 0; i < 10; i++ {
		edges = append(edges, [2]int{i, (i + 1) % 10})
	}
	for i := 10; i < 15; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	vertices := seq(20)
	const want = 1 + 1 + 4

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		rng.Shuffle(len(vertices), func(i, j int) { vertices[i], vertices[j] = vertices[j], vertices[i] })
		rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
		for i := range edges {
			if rng.Intn(2) == 0 {
				edges[i][0], edges[i][1] = edges[i][1], edges[i][0]
			}
		}
		got, err := Count(vertices, edges)
		if err != nil {
			t.Fatalf("trial %d: Count() error = %v", trial, err)
		}
		if got != want {
			t.Fatalf("trial %d: Count() = %d, want %d", trial, got, want)
		}
	}
}

func TestCountRelabelInvariant(t *testing.T) {
	edges := append(cubeEdges(0), cubeEdges(8)...)
	edges = append(edges, [2]int{16, 17})
	vertices := seq(19)

	base, err := Count(vertices, edges)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	perm := rng.Perm(len(vertices))
	label := func(v int) int { return perm[v]*3 + 1000 }

	relabeled := make([]int, len(vertices))
	for i, v := range vertices {
		relabeled[i] = label(v)
	}
	relabeledEdges := make([][2]int, len(edges))
	for i, e := range edges {
		relabeledEdges[i] = [2]int{label(e[0]), label(e[1])}
	}

	got, err := Count(relabeled, relabeledEdges)
	if err != nil {
		t.Fatalf("Count() relabeled error = %v", err)
	}
	if got != base || got != 4 {
		t.Errorf("Count() relabeled = %d, original = %d, want 4", got, base)
	}
}

func TestIslands(t *testing.T) {
	a, err := NewAdjacency(seq(6), [][2]int{{0, 1}, {1, 2}, {4, 5}})
	if err != nil {
		t.Fatalf("NewAdjacency() error = %v", err)
	}
	islands := a.Islands()
	if len(islands) != a.Count() {
		t.Fatalf("len(Islands()) = %d, Count() = %d", len(islands), a.Count())
	}

	wantSizes := []int{3, 1, 2}
	total := 0
	for i, is := range islands {
		if len(is) != wantSizes[i] {
			t.Errorf("island %d = %v, want %d members", i, is, wantSizes[i])
		}
		total += len(is)
	}
	if total != a.Len() {
		t.Errorf("islands cover %d vertices, want %d", total, a.Len())
	}
	if islands[0][0] != 0 || islands[1][0] != 3 || islands[2][0] != 4 {
		t.Errorf("islands not seeded in input order: %v", islands)
	}
}

func TestAdjacencyAccessors(t *testing.T) {
	a, err := NewAdjacency([]int{3, 1, 3, 2}, [][2]int{{1, 2}})
	if err != nil {
		t.Fatalf("NewAdjacency() error = %v", err)
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
	vs := a.Vertices()
	if len(vs) != 3 || vs[0] != 3 || vs[1] != 1 || vs[2] != 2 {
		t.Errorf("Vertices() = %v, want [3 1 2]", vs)
	}
	vs[0] = 99
	if a.Vertices()[0] != 3 {
		t.Error("Vertices() exposes internal state")
	}
	if n := a.Neighbors(1); len(n) != 1 || n[0] != 2 {
		t.Errorf("Neighbors(1) = %v, want [2]", n)
	}

	// Counting twice gives the same answer: traversal does not consume the map.
	if a.Count() != 2 || a.Count() != 2 {
		t.Error("Count() not repeatable")
	}
}

func TestCountMesh(t *testing.T) {
	m := mesh.New("quad+loose")
	for i := 0; i < 6; i++ {
		m.AddVertex(v3.Vec{X: float64(i)}, v3.Vec{})
	}
	m.Triangles = []mesh.Triangle{
		{Verts: [3]int{0, 1, 2}, Material: mesh.NoMaterial},
		{Verts: [3]int{0, 2, 3}, Material: mesh.NoMaterial},
	}
	m.LooseEdges = [][2]int{{4, 5}}

	got, err := CountMesh(m)
	if err != nil {
		t.Fatalf("CountMesh() error = %v", err)
	}
	if got != 2 {
		t.Errorf("CountMesh() = %d, want 2", got)
	}
}
