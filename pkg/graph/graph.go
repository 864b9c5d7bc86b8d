package graph

import "sort"

// DefaultSurfaceProp is the physics surface used when a script names none.
const DefaultSurfaceProp = "default"

// Prop holds the model-wide settings declared by the (prop ...) form.
type Prop struct {
	ModelPath    string   `json:"model_path,omitempty"` // path under a models directory, e.g. "props/crate01.mdl"
	SurfaceProp  string   `json:"surface_prop"`
	Mass         float64  `json:"mass"`
	Static       bool     `json:"static"`
	MostlyOpaque bool     `json:"mostly_opaque"`
	CDMaterials  []string `json:"cd_materials,omitempty"` // manual material folders, empty for automatic
}

// DesignGraph is the immutable result of evaluating a prop script. Each
// evaluation produces a new graph.
type DesignGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Prop      Prop              `json:"prop"`
	Version   uint64            `json:"version"`
}

// New creates an empty DesignGraph with default prop settings.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Prop: Prop{
			SurfaceProp: DefaultSurfaceProp,
			Mass:        1,
		},
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *DesignGraph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *DesignGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Parts returns all primitive and boolean nodes sorted by name.
func (g *DesignGraph) Parts() []*Node {
	var parts []*Node
	for _, n := range g.Nodes {
		if n.Kind == NodePrimitive || n.Kind == NodeBoolean {
			parts = append(parts, n)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })
	return parts
}

// Groups returns the root groups with the given role, in root order.
func (g *DesignGraph) Groups(role GroupRole) []*Node {
	var out []*Node
	for _, id := range g.Roots {
		n := g.Nodes[id]
		if n == nil || n.Kind != NodeGroup {
			continue
		}
		if gd, ok := n.Data.(GroupData); ok && gd.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the child nodes of the given node.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}
