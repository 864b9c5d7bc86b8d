package mesh

import (
	"fmt"
	"math"

	"github.com/chazu/automdl/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultWeldEpsilon is the grid size used to merge coincident soup vertices.
const DefaultWeldEpsilon = 1e-5

// weldKey quantizes a position onto a grid of the given cell size.
type weldKey [3]int64

func quantize(p v3.Vec, eps float64) weldKey {
	return weldKey{
		int64(math.Round(p.X / eps)),
		int64(math.Round(p.Y / eps)),
		int64(math.Round(p.Z / eps)),
	}
}

// Weld converts a kernel triangle soup into an indexed mesh, merging
// vertices whose positions fall into the same epsilon grid cell. Vertex
// normals are recomputed from the welded faces. The result has no UV layer;
// call ProjectUVs when one is needed.
func Weld(soup *kernel.Mesh, epsilon float64) (*Mesh, error) {
	if epsilon <= 0 {
		epsilon = DefaultWeldEpsilon
	}
	if len(soup.Vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: %s: vertex array length %d is not a multiple of 3", ErrInvalidMesh, soup.PartName, len(soup.Vertices))
	}
	if len(soup.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %s: index array length %d is not a multiple of 3", ErrInvalidMesh, soup.PartName, len(soup.Indices))
	}

	m := New(soup.PartName)
	material := NoMaterial
	if soup.Material != "" {
		material = m.Slot(soup.Material)
	}

	n := soup.VertexCount()
	index := make(map[weldKey]int, n)
	welded := make([]int, n)
	for i := 0; i < n; i++ {
		p := v3.Vec{
			X: float64(soup.Vertices[i*3]),
			Y: float64(soup.Vertices[i*3+1]),
			Z: float64(soup.Vertices[i*3+2]),
		}
		k := quantize(p, epsilon)
		if j, ok := index[k]; ok {
			welded[i] = j
			continue
		}
		j := m.AddVertex(p, v3.Vec{})
		index[k] = j
		welded[i] = j
	}

	for t := 0; t < soup.TriangleCount(); t++ {
		var tri Triangle
		for c := 0; c < 3; c++ {
			src := int(soup.Indices[t*3+c])
			if src >= n {
				return nil, fmt.Errorf("%w: %s: triangle %d references soup vertex %d of %d", ErrInvalidMesh, soup.PartName, t, src, n)
			}
			tri.Verts[c] = welded[src]
		}
		tri.Smooth = soup.Smooth
		tri.Material = material
		m.Triangles = append(m.Triangles, tri)
	}

	m.RemoveDegenerate()
	m.RemoveUnreferencedVertices()
	m.ComputeVertexNormals()
	return m, nil
}
