package graph

import (
	"strings"
	"testing"
)

func resultHasError(r ValidationResult, substr string) bool {
	for _, e := range r.Errors {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func resultHasWarning(r ValidationResult, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func logResult(t *testing.T, r ValidationResult) {
	t.Helper()
	for _, e := range r.Errors {
		t.Logf("  error: %s", e)
	}
	for _, w := range r.Warnings {
		t.Logf("  warning: %s", w.Message)
	}
}

func TestValidateAll_ValidCrate(t *testing.T) {
	r := ValidateAll(buildCrate())
	if !r.OK() || len(r.Warnings) != 0 {
		t.Error("expected a clean result")
		logResult(t, r)
	}
}

func TestValidateAll_Dimensions(t *testing.T) {
	tests := []struct {
		name string
		data NodeData
		want string
	}{
		{"zero box X", BoxData{Dimensions: Vec3{0, 1, 1}, Surface: Surface{Material: "crate"}}, "box dimension X"},
		{"negative box Z", BoxData{Dimensions: Vec3{1, 1, -2}, Surface: Surface{Material: "crate"}}, "box dimension Z"},
		{"zero cylinder height", CylinderData{Height: 0, Radius: 2, Surface: Surface{Material: "crate"}}, "cylinder height"},
		{"negative cylinder radius", CylinderData{Height: 3, Radius: -1, Surface: Surface{Material: "crate"}}, "cylinder radius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildCrate()
			find(g, "lid").Data = tt.data
			r := ValidateAll(g)
			if !resultHasError(r, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logResult(t, r)
			}
		})
	}
}

func TestValidateAll_CylinderSegmentsWarning(t *testing.T) {
	g := buildCrate()
	find(g, "lid").Data = CylinderData{Height: 2, Radius: 16, Segments: -3, Surface: Surface{Material: "crate"}}
	r := ValidateAll(g)
	if !r.OK() || !resultHasWarning(r, "segments -3 ignored") {
		t.Error("expected only a segments warning")
		logResult(t, r)
	}
}

func TestValidateAll_Mass(t *testing.T) {
	tests := []struct {
		name    string
		mass    float64
		static  bool
		wantErr bool
	}{
		{"positive", 12, false, false},
		{"zero physics prop", 0, false, true},
		{"zero static prop", 0, true, false},
		{"negative static prop", -1, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildCrate()
			g.Prop.Mass = tt.mass
			g.Prop.Static = tt.static
			r := ValidateAll(g)
			if got := resultHasError(r, "mass"); got != tt.wantErr {
				t.Errorf("mass error = %v, want %v", got, tt.wantErr)
				logResult(t, r)
			}
		})
	}
}

func TestValidateAll_NoVisualGeometry(t *testing.T) {
	g := buildCrate()
	find(g, "body").Data = GroupData{Role: RoleNone}
	r := ValidateAll(g)
	if !resultHasError(r, "no visual geometry") {
		t.Error("expected missing visual geometry error")
		logResult(t, r)
	}
}

func TestValidateAll_MixedMaterials(t *testing.T) {
	g := buildCrate()
	lid := find(g, "lid")
	lid.Data = BoxData{Dimensions: Vec3{32, 32, 2}}
	r := ValidateAll(g)
	if !resultHasError(r, `visual part "lid" has no material`) {
		t.Error("expected mixed material error")
		logResult(t, r)
	}

	// No materials at all is fine.
	find(g, "base").Data = BoxData{Dimensions: Vec3{32, 32, 30}}
	if r := ValidateAll(g); !r.OK() {
		t.Error("expected no errors when no part names a material")
		logResult(t, r)
	}
}

func TestValidateAll_BooleanCutterMaterial(t *testing.T) {
	g := buildCrate()
	hollowBase(g)
	if r := ValidateAll(g); !r.OK() {
		t.Error("a cutter without material should not count as a bare visual part")
		logResult(t, r)
	}

	// The first operand still has to carry the material.
	find(g, "base").Data = BoxData{Dimensions: Vec3{32, 32, 30}}
	if r := ValidateAll(g); !resultHasError(r, `visual part "base" has no material`) {
		t.Error("expected mixed material error for the base operand")
		logResult(t, r)
	}
}

func TestValidateAll_Collision(t *testing.T) {
	t.Run("missing group warns", func(t *testing.T) {
		g := buildCrate()
		for _, path := range []string{"collision/hull", "place/hull", "defpart/hull_box"} {
			delete(g.Nodes, NewNodeID(path))
		}
		delete(g.NameIndex, "hull")
		delete(g.NameIndex, "hull_box")
		g.Roots = g.Roots[:1]
		r := ValidateAll(g)
		if !r.OK() || !resultHasWarning(r, "no collision group") {
			t.Error("expected only a missing collision warning")
			logResult(t, r)
		}
	})
	t.Run("empty group errors", func(t *testing.T) {
		g := buildCrate()
		find(g, "hull").Children = nil
		r := ValidateAll(g)
		if !resultHasError(r, "collision group contains no geometry") {
			t.Error("expected empty collision error")
			logResult(t, r)
		}
	})
}

func TestValidateAll_SurfacePropWarning(t *testing.T) {
	g := buildCrate()
	g.Prop.SurfaceProp = ""
	if r := ValidateAll(g); !resultHasWarning(r, "no surfaceprop") {
		t.Error("expected surfaceprop warning")
		logResult(t, r)
	}
}
