// Package tessellate walks a design graph and produces triangle soups
// using a geometry kernel. One soup is produced per placed primitive or
// boolean part.
package tessellate

import (
	"fmt"

	"github.com/chazu/automdl/pkg/graph"
	"github.com/chazu/automdl/pkg/kernel"
)

// DefaultSegments is used for cylinders that do not set :segments.
const DefaultSegments = 32

// transformStack holds the placements enclosing the node being walked,
// outermost first.
type transformStack struct {
	frames []graph.TransformData
}

func (ts *transformStack) push(td graph.TransformData) {
	ts.frames = append(ts.frames, td)
}

func (ts *transformStack) pop() {
	if len(ts.frames) > 0 {
		ts.frames = ts.frames[:len(ts.frames)-1]
	}
}

// apply places s by every frame on the stack, innermost first.
func (ts *transformStack) apply(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts.frames) - 1; i >= 0; i-- {
		s = place(k, s, ts.frames[i])
	}
	return s
}

// place applies one transform: rotation first, then translation.
func place(k kernel.Kernel, s kernel.Solid, td graph.TransformData) kernel.Solid {
	if r := td.Rotation; r != nil && !r.IsZero() {
		s = k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		s = k.Translate(s, t.X, t.Y, t.Z)
	}
	return s
}

// Tessellate walks the groups with the given role and produces one soup per
// primitive or boolean part reached, in traversal order. RoleNone walks
// every root. The graph is never mutated.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel, role graph.GroupRole) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	var roots []*graph.Node
	if role == graph.RoleNone {
		for _, id := range g.Roots {
			if n := g.Get(id); n != nil {
				roots = append(roots, n)
			}
		}
	} else {
		roots = g.Groups(role)
	}

	var meshes []*kernel.Mesh
	ts := &transformStack{}
	for _, root := range roots {
		collected, err := walkNode(g, k, root, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s group %q: %w", role, root.Name, err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

func walkNode(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return handlePrimitive(k, n, ts)
	case graph.NodeTransform:
		return handleTransform(g, k, n, ts)
	case graph.NodeGroup:
		return walkChildren(g, k, n, ts)
	case graph.NodeBoolean:
		return handleBoolean(g, k, n, ts)
	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func primitiveSolid(k kernel.Kernel, n *graph.Node) (kernel.Solid, error) {
	switch data := n.Data.(type) {
	case graph.BoxData:
		return k.Box(data.Dimensions.X, data.Dimensions.Y, data.Dimensions.Z), nil
	case graph.CylinderData:
		segments := data.Segments
		if segments <= 0 {
			segments = DefaultSegments
		}
		return k.Cylinder(data.Height, data.Radius, segments), nil
	}
	return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
}

func handlePrimitive(k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	solid, err := primitiveSolid(k, n)
	if err != nil {
		return nil, err
	}
	s, _ := graph.SurfaceOf(n.Data)
	return meshPart(k, n, ts.apply(k, solid), s)
}

// meshPart triangulates one placed part and labels the soup.
func meshPart(k kernel.Kernel, n *graph.Node, solid kernel.Solid, s graph.Surface) ([]*kernel.Mesh, error) {
	m, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", n.Name, err)
	}
	if n.Name != "" {
		m.PartName = n.Name
	} else {
		m.PartName = n.ID.Short()
	}
	m.Material = s.Material
	m.Smooth = s.Smooth
	return []*kernel.Mesh{m}, nil
}

// handleBoolean combines the operands of n into one solid and meshes it as
// a single part with the first operand's surface.
func handleBoolean(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	solid, s, err := solidOf(g, k, n)
	if err != nil {
		return nil, err
	}
	return meshPart(k, n, ts.apply(k, solid), s)
}

// solidOf builds the solid of a subtree without meshing it. Groups and
// transforms with several children union them. The surface returned is the
// first primitive's in operand order.
func solidOf(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node) (kernel.Solid, graph.Surface, error) {
	if n.Kind == graph.NodePrimitive {
		solid, err := primitiveSolid(k, n)
		if err != nil {
			return nil, graph.Surface{}, err
		}
		s, _ := graph.SurfaceOf(n.Data)
		return solid, s, nil
	}

	children := g.Children(n)
	if len(children) == 0 {
		return nil, graph.Surface{}, fmt.Errorf("%s node %q has no geometry", n.Kind, n.Name)
	}
	combine := k.Union
	if bd, ok := n.Data.(graph.BooleanData); ok {
		switch bd.Op {
		case graph.OpDifference:
			combine = k.Difference
		case graph.OpIntersection:
			combine = k.Intersection
		}
	}

	var (
		acc  kernel.Solid
		surf graph.Surface
	)
	for i, c := range children {
		solid, s, err := solidOf(g, k, c)
		if err != nil {
			return nil, graph.Surface{}, err
		}
		if i == 0 {
			acc, surf = solid, s
			continue
		}
		acc = combine(acc, solid)
	}

	if n.Kind == graph.NodeTransform {
		td, ok := n.Data.(graph.TransformData)
		if !ok {
			return nil, graph.Surface{}, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		acc = place(k, acc, td)
	}
	return acc, surf, nil
}

func handleTransform(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	ts.push(td)
	defer ts.pop()
	return walkChildren(g, k, n, ts)
}

func walkChildren(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, child := range g.Children(n) {
		collected, err := walkNode(g, k, child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}
