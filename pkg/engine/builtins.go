package engine

import (
	"fmt"

	"github.com/chazu/automdl/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builder populates one DesignGraph during one evaluation. Anonymous nodes
// are numbered per evaluation so the same script yields the same IDs.
type builder struct {
	g       *graph.DesignGraph
	anon    int
	sawProp bool
	roles   map[graph.GroupRole]string
}

func newBuilder(g *graph.DesignGraph) *builder {
	return &builder{g: g, roles: make(map[graph.GroupRole]string)}
}

func (b *builder) nextID(kind, hint string) graph.NodeID {
	b.anon++
	return graph.NewNodeID(fmt.Sprintf("%s/%s#%d", kind, hint, b.anon))
}

// builtin matches the signature zygomys expects for user functions.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the prop script builtins into env. Source must
// go through preprocessSource first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, g *graph.DesignGraph) {
	b := newBuilder(g)
	for name, fn := range map[string]builtin{
		"prop":         b.prop,
		"box":          b.box,
		"cylinder":     b.cylinder,
		"defpart":      b.defpart,
		"part":         b.part,
		"vec3":         b.vec3,
		"place":        b.place,
		"group":        b.group(graph.RoleNone),
		"visual":       b.group(graph.RoleVisual),
		"collision":    b.group(graph.RoleCollision),
		"union":        b.boolean(graph.OpUnion),
		"difference":   b.boolean(graph.OpDifference),
		"intersection": b.boolean(graph.OpIntersection),
	} {
		env.AddFunction(name, fn)
	}
}

// -----------------------------------------------------------------------
// (prop :model "props/crate01.mdl" :surfaceprop "wood_crate" :mass 40
//       :static false :mostly-opaque true :cdmaterials (list "models/props"))
// -----------------------------------------------------------------------
func (b *builder) prop(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if b.sawProp {
		return zygo.SexpNull, fmt.Errorf("prop: declared more than once")
	}
	b.sawProp = true

	pa := parseArgs(args)
	if err := pa.unknownKeys("prop", "model", "surfaceprop", "mass", "static", "mostly-opaque", "cdmaterials"); err != nil {
		return zygo.SexpNull, err
	}
	p := &b.g.Prop

	if v, ok := pa.kw["model"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prop: model: %w", err)
		}
		p.ModelPath = s
	}
	if v, ok := pa.kw["surfaceprop"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prop: surfaceprop: %w", err)
		}
		p.SurfaceProp = s
	}
	if v, ok := pa.kw["mass"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prop: mass: %w", err)
		}
		p.Mass = f
	}
	if v, ok := pa.kw["static"]; ok {
		s, err := toBool(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prop: static: %w", err)
		}
		p.Static = s
	}
	if v, ok := pa.kw["mostly-opaque"]; ok {
		s, err := toBool(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prop: mostly-opaque: %w", err)
		}
		p.MostlyOpaque = s
	}
	if v, ok := pa.kw["cdmaterials"]; ok {
		dirs, err := toStrings(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prop: cdmaterials: %w", err)
		}
		p.CDMaterials = dirs
	}
	return zygo.SexpNull, nil
}

// surface reads the :material and :smooth keywords shared by primitives.
func surface(form string, pa kwArgs) (graph.Surface, error) {
	var s graph.Surface
	if v, ok := pa.kw["material"]; ok {
		m, err := toString(v)
		if err != nil {
			return s, fmt.Errorf("%s: material: %w", form, err)
		}
		s.Material = m
	}
	if v, ok := pa.kw["smooth"]; ok {
		sm, err := toBool(v)
		if err != nil {
			return s, fmt.Errorf("%s: smooth: %w", form, err)
		}
		s.Smooth = sm
	}
	return s, nil
}

// -----------------------------------------------------------------------
// (box :size (vec3 32 32 30) :material "crate" :smooth false)
// -----------------------------------------------------------------------
func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeys("box", "size", "material", "smooth"); err != nil {
		return zygo.SexpNull, err
	}
	bd := graph.BoxData{}

	v, ok := pa.kw["size"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("box: :size is required")
	}
	size, err := toVec3(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
	}
	bd.Dimensions = size

	if bd.Surface, err = surface("box", pa); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpShape{data: bd}, nil
}

// -----------------------------------------------------------------------
// (cylinder :height 40 :radius 2 :segments 16 :material "metal" :smooth true)
// -----------------------------------------------------------------------
func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeys("cylinder", "height", "radius", "segments", "material", "smooth"); err != nil {
		return zygo.SexpNull, err
	}
	cd := graph.CylinderData{}

	for _, k := range []struct {
		key string
		dst *float64
	}{{"height", &cd.Height}, {"radius", &cd.Radius}} {
		v, ok := pa.kw[k.key]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder: :%s is required", k.key)
		}
		f, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %s: %w", k.key, err)
		}
		*k.dst = f
	}
	if v, ok := pa.kw["segments"]; ok {
		n, err := toInt(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
		}
		cd.Segments = n
	}

	var err error
	if cd.Surface, err = surface("cylinder", pa); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpShape{data: cd}, nil
}

// -----------------------------------------------------------------------
// (defpart "name" (box ...))
// -----------------------------------------------------------------------
func (b *builder) defpart(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and a shape expression")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	}
	if partName == "" {
		return zygo.SexpNull, fmt.Errorf("defpart: name must not be empty")
	}
	if b.g.Lookup(partName) != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: %q already defined", partName)
	}
	shape, ok := args[1].(*sexpShape)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("defpart: expected box or cylinder, got %T (%s)", args[1], sexpString(args[1]))
	}

	id := graph.NewNodeID("defpart/" + partName)
	b.g.AddNode(&graph.Node{
		ID:   id,
		Kind: graph.NodePrimitive,
		Name: partName,
		Data: shape.data,
	})
	return &sexpNodeRef{id: id, name: partName}, nil
}

// -----------------------------------------------------------------------
// (part "name")
// -----------------------------------------------------------------------
func (b *builder) part(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("part requires a name argument")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
	}
	n := b.g.Lookup(partName)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
	}
	return &sexpNodeRef{id: n.ID, name: partName}, nil
}

// -----------------------------------------------------------------------
// (vec3 1 2 3)
// -----------------------------------------------------------------------
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var xyz [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		xyz[i] = f
	}
	return &sexpVec3{vec: graph.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
}

// -----------------------------------------------------------------------
// (place (part "lid") :at (vec3 0 0 30) :rotate (vec3 0 0 45))
// -----------------------------------------------------------------------
func (b *builder) place(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeys("place", "at", "rotate"); err != nil {
		return zygo.SexpNull, err
	}
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("place requires exactly one node reference")
	}
	child, err := toNodeRef(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("place: %w", err)
	}

	td := graph.TransformData{}
	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}
		td.Translation = &vec
	}
	if v, ok := pa.kw["rotate"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
		}
		td.Rotation = &vec
	}

	hint := child.name
	if hint == "" {
		hint = child.id.Short()
	}
	id := b.nextID("place", hint)
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child.id},
		Data:     td,
	})
	return &sexpNodeRef{id: id}, nil
}

// -----------------------------------------------------------------------
// (group "name" child...)      plain sub-assembly
// (visual "name" child...)     reference mesh root
// (collision "name" child...)  physics mesh root
// -----------------------------------------------------------------------
func (b *builder) group(role graph.GroupRole) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires a name argument", name)
		}
		groupName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: name: %w", name, err)
		}
		if b.g.Lookup(groupName) != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %q already defined", name, groupName)
		}
		if role != graph.RoleNone {
			if prev, ok := b.roles[role]; ok {
				return zygo.SexpNull, fmt.Errorf("%s: %q already declared as the %s group", name, prev, role)
			}
			b.roles[role] = groupName
		}

		var children []graph.NodeID
		for i, arg := range args[1:] {
			ref, err := toNodeRef(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: child %d: %w", name, i+1, err)
			}
			children = append(children, ref.id)
		}

		id := graph.NewNodeID(role.String() + "/" + groupName)
		b.g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     groupName,
			Children: children,
			Data:     graph.GroupData{Role: role},
		})
		if role != graph.RoleNone {
			b.g.AddRoot(id)
		}
		return &sexpNodeRef{id: id, name: groupName}, nil
	}
}

// -----------------------------------------------------------------------
// (difference "shell" (part "outer") (place (part "cavity") :at (vec3 2 2 2)))
// (union "name" operand...)  (intersection "name" operand...)
// -----------------------------------------------------------------------
func (b *builder) boolean(op graph.BooleanOp) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 3 {
			return zygo.SexpNull, fmt.Errorf("%s requires a name and at least 2 operands", name)
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: name: %w", name, err)
		}
		if partName == "" {
			return zygo.SexpNull, fmt.Errorf("%s: name must not be empty", name)
		}
		if b.g.Lookup(partName) != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %q already defined", name, partName)
		}

		operands := make([]graph.NodeID, 0, len(args)-1)
		for i, arg := range args[1:] {
			ref, err := toNodeRef(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", name, i+1, err)
			}
			operands = append(operands, ref.id)
		}

		id := graph.NewNodeID("boolean/" + partName)
		b.g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeBoolean,
			Name:     partName,
			Children: operands,
			Data:     graph.BooleanData{Op: op},
		})
		return &sexpNodeRef{id: id, name: partName}, nil
	}
}
