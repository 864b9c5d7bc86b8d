// Package kernel defines the solid modeling interface used to turn prop
// primitives into triangle soups. The sdfx subpackage is the only backend.
package kernel

import "errors"

// ErrEmptySolid is returned by ToMesh when a solid produces no triangles,
// usually because the mesh resolution is too coarse for its features.
var ErrEmptySolid = errors.New("kernel: solid produced no triangles")

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and meshes solids.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// ToMesh triangulates s into a soup with one vertex per corner.
	ToMesh(s Solid) (*Mesh, error)
}
