package smd

import (
	"errors"
	"fmt"

	"github.com/chazu/automdl/pkg/mesh"
)

const (
	// CollisionMaterial labels every triangle of a collision mesh.
	CollisionMaterial = "Phy"

	// DefaultMaterial labels triangles of visual meshes without materials.
	DefaultMaterial = "None"
)

// ErrMissingSlot is returned when a triangle has no usable material slot.
var ErrMissingSlot = errors.New("smd: triangle has no material slot")

// MaterialPolicy names the material of each triangle.
type MaterialPolicy interface {
	MaterialName(tri mesh.Triangle) (string, error)
}

// Fixed labels every triangle with the same name.
type Fixed string

// MaterialName implements MaterialPolicy.
func (f Fixed) MaterialName(mesh.Triangle) (string, error) {
	return string(f), nil
}

// Slots resolves each triangle's material index against slot names.
type Slots []string

// MaterialName implements MaterialPolicy.
func (s Slots) MaterialName(tri mesh.Triangle) (string, error) {
	if tri.Material < 0 || tri.Material >= len(s) {
		return "", fmt.Errorf("%w: index %d of %d slots", ErrMissingSlot, tri.Material, len(s))
	}
	return s[tri.Material], nil
}

// PolicyFor picks the material policy for m: collision meshes use
// CollisionMaterial, meshes with material slots resolve per triangle, and
// everything else uses DefaultMaterial.
func PolicyFor(m *mesh.Mesh, collision bool) MaterialPolicy {
	switch {
	case collision:
		return Fixed(CollisionMaterial)
	case m.HasMaterials():
		return Slots(m.MaterialSlots)
	default:
		return Fixed(DefaultMaterial)
	}
}
