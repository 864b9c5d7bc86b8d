package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is wrapped by ValidationResult.Err.
var ErrInvalidGraph = errors.New("graph: invalid design")

// ValidationSeverity indicates whether a validation finding blocks export
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks export
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from both validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the result has no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err returns nil when the result is OK, otherwise an error wrapping
// ErrInvalidGraph and every blocking finding.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
}

// Validate runs the structural checks on the design graph. An empty slice
// means the graph is well formed. The graph is never mutated.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateShape(g)...)
	errs = append(errs, validateRoles(g)...)
	return errs
}

// ValidateAll runs the structural checks followed by the geometric and prop
// checks and separates errors from warnings.
func ValidateAll(g *DesignGraph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{NodeID: e.NodeID, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	errs, warnings := validateGeometry(g)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)

	errs, warnings = validateProp(g)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // true when a cycle was found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling; reported by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every child reference points to an
// existing node.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that the NameIndex is injective and that every entry
// points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root exists and warns about nodes not
// reachable from any root. Orphans are never exported.
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}
	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		node := g.Nodes[queue[0]]
		queue = queue[1:]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateShape checks child counts and payload types per node kind:
// primitives are leaves, transforms wrap exactly one child, booleans
// combine at least two.
func validateShape(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	bad := func(n *Node, msg string, args ...any) {
		errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf(msg, args...), Severity: SeverityError})
	}

	for _, node := range g.Nodes {
		switch node.Kind {
		case NodePrimitive:
			if _, ok := SurfaceOf(node.Data); !ok {
				bad(node, "primitive has %T payload", node.Data)
			}
			if len(node.Children) > 0 {
				bad(node, "primitive has %d children", len(node.Children))
			}
		case NodeTransform:
			if _, ok := node.Data.(TransformData); !ok {
				bad(node, "transform has %T payload", node.Data)
			}
			if len(node.Children) != 1 {
				bad(node, "transform has %d children, want 1", len(node.Children))
			}
		case NodeGroup:
			if _, ok := node.Data.(GroupData); !ok {
				bad(node, "group has %T payload", node.Data)
			}
		case NodeBoolean:
			bd, ok := node.Data.(BooleanData)
			if !ok {
				bad(node, "boolean has %T payload", node.Data)
				break
			}
			if len(node.Children) < 2 {
				bad(node, "%s has %d operands, want at least 2", bd.Op, len(node.Children))
			}
		default:
			bad(node, "unknown node kind %d", int(node.Kind))
		}
	}
	return errs
}

// validateRoles checks that role groups are roots and do not contain other
// role groups, so every primitive belongs to at most one exported mesh.
func validateRoles(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	isRoot := make(map[NodeID]bool, len(g.Roots))
	for _, id := range g.Roots {
		isRoot[id] = true
	}

	for _, node := range g.Nodes {
		gd, ok := node.Data.(GroupData)
		if !ok || gd.Role == RoleNone {
			continue
		}
		if !isRoot[node.ID] {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s group is not a root", gd.Role),
				Severity: SeverityError,
			})
		}
		for _, child := range g.Children(node) {
			if cd, ok := child.Data.(GroupData); ok && cd.Role != RoleNone {
				errs = append(errs, ValidationError{
					NodeID:   child.ID,
					Message:  fmt.Sprintf("%s group nested inside %s group", cd.Role, gd.Role),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}
