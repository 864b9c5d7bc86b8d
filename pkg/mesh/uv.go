package mesh

import "math"

// ProjectUVs fills every triangle's corner UVs with a box projection: each
// triangle is projected onto the axis plane most facing its normal, and the
// two remaining coordinates are multiplied by scale. It marks the UV layer as
// present.
func (m *Mesh) ProjectUVs(scale float64) {
	if scale == 0 {
		scale = 1
	}
	for i := range m.Triangles {
		t := &m.Triangles[i]
		n := m.faceCross(*t)
		ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
		for c, v := range t.Verts {
			p := m.Vertices[v].Position
			switch {
			case ax >= ay && ax >= az:
				t.UVs[c] = UV{U: p.Y * scale, V: p.Z * scale}
			case ay >= az:
				t.UVs[c] = UV{U: p.X * scale, V: p.Z * scale}
			default:
				t.UVs[c] = UV{U: p.X * scale, V: p.Y * scale}
			}
		}
	}
	m.HasUVs = true
}
