package graph

import "fmt"

// ---------------------------------------------------------------------------
// Geometric validation
// ---------------------------------------------------------------------------

// validateGeometry checks primitive dimensions.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	positive := func(n *Node, what string, v float64) {
		if v <= 0 {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%s is %.4f, must be positive", what, v),
				Severity: SeverityError,
			})
		}
	}

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case BoxData:
			positive(node, "box dimension X", d.Dimensions.X)
			positive(node, "box dimension Y", d.Dimensions.Y)
			positive(node, "box dimension Z", d.Dimensions.Z)
		case CylinderData:
			positive(node, "cylinder height", d.Height)
			positive(node, "cylinder radius", d.Radius)
			if d.Segments < 0 {
				warnings = append(warnings, ValidationWarning{
					NodeID:  node.ID,
					Message: fmt.Sprintf("cylinder segments %d ignored", d.Segments),
				})
			}
		}
	}
	return errs, warnings
}

// ---------------------------------------------------------------------------
// Prop validation
// ---------------------------------------------------------------------------

// reachablePrimitives returns the primitives under the given roots whose
// surfaces end up in the exported mesh.
func reachablePrimitives(g *DesignGraph, roots []*Node) []*Node {
	var out []*Node
	seen := make(map[NodeID]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		if n.Kind == NodePrimitive {
			out = append(out, n)
			return
		}
		children := g.Children(n)
		if n.Kind == NodeBoolean && len(children) > 0 {
			// Only the first operand contributes surfaces.
			children = children[:1]
		}
		for _, c := range children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// validateProp checks the prop settings and the visual/collision split.
func validateProp(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	p := g.Prop
	if p.Mass < 0 || (!p.Static && p.Mass == 0) {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("mass %.2f must be positive for a physics prop", p.Mass),
			Severity: SeverityError,
		})
	}
	if p.SurfaceProp == "" {
		warnings = append(warnings, ValidationWarning{Message: "no surfaceprop set"})
	}

	visual := reachablePrimitives(g, g.Groups(RoleVisual))
	if len(visual) == 0 {
		errs = append(errs, ValidationError{
			Message:  "prop has no visual geometry",
			Severity: SeverityError,
		})
	}

	// Either every visual primitive names a material or none does; a mix
	// leaves triangles without a slot.
	var named, unnamed []*Node
	for _, n := range visual {
		s, _ := SurfaceOf(n.Data)
		if s.Material == "" {
			unnamed = append(unnamed, n)
		} else {
			named = append(named, n)
		}
	}
	if len(named) > 0 {
		for _, n := range unnamed {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("visual part %q has no material while other parts do", n.Name),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Groups(RoleCollision)) == 0 {
		warnings = append(warnings, ValidationWarning{Message: "prop has no collision group; model will have no physics"})
	} else if len(reachablePrimitives(g, g.Groups(RoleCollision))) == 0 {
		errs = append(errs, ValidationError{
			Message:  "collision group contains no geometry",
			Severity: SeverityError,
		})
	}
	return errs, warnings
}
