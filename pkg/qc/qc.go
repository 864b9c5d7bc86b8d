// Package qc writes the QC script that drives the model compiler for a
// single-body prop: one reference mesh, an optional collision mesh and an
// idle sequence.
package qc

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"
)

// Model holds everything the QC script references.
type Model struct {
	// ModelPath is the model name relative to the game's models directory,
	// without extension, e.g. "props/crate01".
	ModelPath string

	// VisualMesh and CollisionMesh are SMD file names without extension.
	// An empty CollisionMesh omits the $collisionmodel block.
	VisualMesh    string
	CollisionMesh string

	Static       bool
	MostlyOpaque bool
	SurfaceProp  string

	// CDMaterials lists the material search directories. HasMaterials false
	// adds an empty search path so the compiler does not warn.
	CDMaterials  []string
	HasMaterials bool

	// Mass is ignored for static props, which always get 1.
	Mass float64

	// Islands is the number of disconnected pieces in the collision mesh.
	// More than one makes the collision model concave.
	Islands int
}

// Concave reports whether the collision model needs $concave.
func (m Model) Concave() bool {
	return m.CollisionMesh != "" && m.Islands > 1
}

// EffectiveMass returns the mass written to the collision model.
func (m Model) EffectiveMass() float64 {
	if m.Static {
		return 1
	}
	return m.Mass
}

// QC blocks use single braces, so placeholders are delimited with [[ ]].
const (
	startTag = "[["
	endTag   = "]]"
)

var (
	headerTmpl = fasttemplate.New(`$modelname "[[model]].mdl"

$bodygroup "Body"
{
	studio "[[visual]].smd"
}
`, startTag, endTag)

	surfaceTmpl = fasttemplate.New(`
$surfaceprop "[[surfaceprop]]"

$contents "solid"

`, startTag, endTag)

	sequenceTmpl = fasttemplate.New(`
$sequence "idle" {
	"[[visual]].smd"
	fps 30
	fadein 0.2
	fadeout 0.2
	loop
}
`, startTag, endTag)

	collisionTmpl = fasttemplate.New(`
$collisionmodel "[[collision]].smd" {[[concave]]
	$mass [[mass]]
	$inertia 1
	$damping 0
	$rotdamping 0
	$rootbone " "
}
`, startTag, endTag)
)

// Write writes the QC script for m to w.
func Write(w io.Writer, m Model) error {
	bw := bufio.NewWriter(w)
	vars := map[string]interface{}{
		"model":       m.ModelPath,
		"visual":      m.VisualMesh,
		"collision":   m.CollisionMesh,
		"surfaceprop": m.SurfaceProp,
		"mass":        strconv.FormatFloat(m.EffectiveMass(), 'f', -1, 64),
		"concave":     "",
	}
	if m.Concave() {
		vars["concave"] = "\n\t$concave\n\t$maxconvexpieces " + strconv.Itoa(m.Islands)
	}

	if _, err := headerTmpl.Execute(bw, vars); err != nil {
		return err
	}
	if m.Static {
		bw.WriteString("\n$staticprop\n")
	}
	if m.MostlyOpaque {
		bw.WriteString("\n$mostlyopaque\n")
	}
	if _, err := surfaceTmpl.Execute(bw, vars); err != nil {
		return err
	}
	for _, dir := range m.CDMaterials {
		bw.WriteString(`$cdmaterials "` + dir + "\"\n")
	}
	if !m.HasMaterials {
		bw.WriteString("$cdmaterials \"\"\n")
	}
	if _, err := sequenceTmpl.Execute(bw, vars); err != nil {
		return err
	}
	if m.CollisionMesh != "" {
		if _, err := collisionTmpl.Execute(bw, vars); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String returns the QC script for m.
func (m Model) String() string {
	var sb strings.Builder
	_ = Write(&sb, m)
	return sb.String()
}
