package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/automdl/pkg/engine"
	"github.com/chazu/automdl/pkg/graph"
	"github.com/chazu/automdl/pkg/kernel/sdfx"
	"github.com/chazu/automdl/pkg/materials"
)

const crateScript = `
(prop :model "models/props/crate01.mdl" :surfaceprop "wood_crate" :mass 40)
(defpart "base" (box :size (vec3 32 32 28) :material "crate"))
(defpart "lid" (box :size (vec3 32 32 4) :material "crate_lid"))
(defpart "hull-box" (box :size (vec3 32 32 32)))
(visual "body"
  (place (part "base"))
  (place (part "lid") :at (vec3 0 0 28)))
(collision "hull" (place (part "hull-box")))
`

func fromScript(t *testing.T, src string, opts Options) (Job, error) {
	t.Helper()
	return FromScript(context.Background(), engine.NewEngine(), sdfx.New(sdfx.WithCells(16)), src, opts)
}

func TestFromScript(t *testing.T) {
	j, err := fromScript(t, crateScript, Options{OutputDir: "out", UVScale: 1.0 / 32, Workers: 2})
	if err != nil {
		t.Fatalf("FromScript() error = %v", err)
	}

	m := j.Model
	if m.ModelPath != "props/crate01" || m.SurfaceProp != "wood_crate" || m.Mass != 40 || m.Static {
		t.Errorf("model = %+v", m)
	}
	if !m.HasMaterials || len(m.CDMaterials) != 1 || m.CDMaterials[0] != "models/props" {
		t.Errorf("materials = %v / %v", m.HasMaterials, m.CDMaterials)
	}

	if j.Visual == nil || j.Visual.IsEmpty() || !j.Visual.HasUVs {
		t.Fatal("visual mesh missing geometry or UVs")
	}
	if strings.Join(j.Visual.MaterialSlots, ",") != "crate,crate_lid" {
		t.Errorf("visual slots = %v", j.Visual.MaterialSlots)
	}
	if err := j.Visual.Validate(); err != nil {
		t.Errorf("visual Validate() = %v", err)
	}
	if j.Collision == nil || j.Collision.IsEmpty() || j.Collision.HasMaterials() {
		t.Error("collision mesh should have geometry and no materials")
	}
	if j.OutputDir != "out" || j.Workers != 2 {
		t.Errorf("job options not carried: %+v", j)
	}
}

func TestFromScriptThenRun(t *testing.T) {
	j, err := fromScript(t, crateScript, Options{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("FromScript() error = %v", err)
	}
	res, err := Run(context.Background(), j)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Islands < 1 || res.VisualTriangles == 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestFromScriptCDMaterials(t *testing.T) {
	t.Run("options", func(t *testing.T) {
		j, err := fromScript(t, crateScript, Options{
			CDMaterialsMode: materials.Manual,
			CDMaterials:     []string{"models/shared"},
			MakeVMTs:        true,
		})
		if err != nil {
			t.Fatalf("FromScript() error = %v", err)
		}
		if len(j.Model.CDMaterials) != 1 || j.Model.CDMaterials[0] != "models/shared/" {
			t.Errorf("CDMaterials = %v", j.Model.CDMaterials)
		}
		if j.MakeVMTs {
			t.Error("placeholder VMTs are only made in auto mode")
		}
	})
	t.Run("script wins", func(t *testing.T) {
		src := strings.Replace(crateScript, ":mass 40", `:mass 40 :cdmaterials (list "models/crates")`, 1)
		j, err := fromScript(t, src, Options{CDMaterials: []string{"ignored"}})
		if err != nil {
			t.Fatalf("FromScript() error = %v", err)
		}
		if len(j.Model.CDMaterials) != 1 || j.Model.CDMaterials[0] != "models/crates/" {
			t.Errorf("CDMaterials = %v", j.Model.CDMaterials)
		}
	})
}

func TestFromScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want error
	}{
		{"eval error", `(part "ghost")`, Options{ModelPath: "x"}, ErrScript},
		{"invalid graph", `(prop :model "x.mdl")`, Options{}, graph.ErrInvalidGraph},
		{"no model path", strings.Replace(crateScript, `:model "models/props/crate01.mdl" `, "", 1), Options{}, ErrNoModelPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fromScript(t, tt.src, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("FromScript() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFromScriptModelPathFallback(t *testing.T) {
	src := strings.Replace(crateScript, `:model "models/props/crate01.mdl" `, "", 1)
	j, err := fromScript(t, src, Options{ModelPath: "props/barrel"})
	if err != nil {
		t.Fatalf("FromScript() error = %v", err)
	}
	if j.Model.ModelPath != "props/barrel" || j.Visual.Name != "barrel_ref" || j.Collision.Name != "barrel_phy" {
		t.Errorf("names = %s / %s / %s", j.Model.ModelPath, j.Visual.Name, j.Collision.Name)
	}
}

func TestModelPath(t *testing.T) {
	tests := []struct{ script, def, want string }{
		{"props/crate01.mdl", "", "props/crate01"},
		{"models/props/crate01.mdl", "", "props/crate01"},
		{`models\props\crate01.mdl`, "", "props/crate01"},
		{"", "props/barrel", "props/barrel"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := modelPath(tt.script, tt.def); got != tt.want {
			t.Errorf("modelPath(%q, %q) = %q, want %q", tt.script, tt.def, got, tt.want)
		}
	}
}
