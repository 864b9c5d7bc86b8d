package island

import "github.com/chazu/automdl/pkg/mesh"

// CountMesh counts the islands of m's vertex/edge graph, including loose
// vertices and loose edges.
func CountMesh(m *mesh.Mesh) (int, error) {
	return Count(m.VertexIndices(), m.Edges())
}
