package graph

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Surface holds the shading of a primitive's faces.
type Surface struct {
	Material string `json:"material,omitempty"` // material slot name, empty for none
	Smooth   bool   `json:"smooth,omitempty"`   // shade with vertex normals
}

// BoxData is an axis-aligned box with its minimum corner at the origin.
type BoxData struct {
	Dimensions Vec3 `json:"dimensions"`
	Surface
}

func (BoxData) nodeData() {}

// CylinderData is a Z-aligned cylinder centered on the origin.
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
	Surface
}

func (CylinderData) nodeData() {}

// SurfaceOf returns the surface of a primitive payload and whether d is one.
func SurfaceOf(d NodeData) (Surface, bool) {
	switch p := d.(type) {
	case BoxData:
		return p.Surface, true
	case CylinderData:
		return p.Surface, true
	}
	return Surface{}, false
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData places its single child. Rotation is applied before
// translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp selects how a boolean node combines its operands.
type BooleanOp int

const (
	OpUnion        BooleanOp = iota // all operands merged
	OpDifference                    // first operand minus the rest
	OpIntersection                  // volume shared by every operand
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData combines the solids of its children, in order, into a single
// part. The part takes its surface from the first operand.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupRole says which exported mesh a group's geometry belongs to.
type GroupRole int

const (
	RoleNone      GroupRole = iota // plain grouping
	RoleVisual                     // reference mesh
	RoleCollision                  // physics mesh
)

func (r GroupRole) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleVisual:
		return "visual"
	case RoleCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// GroupData is a logical grouping of children.
type GroupData struct {
	Role        GroupRole `json:"role"`
	Description string    `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
