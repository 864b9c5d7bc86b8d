package export

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/automdl/pkg/engine"
	"github.com/chazu/automdl/pkg/graph"
	"github.com/chazu/automdl/pkg/kernel"
	"github.com/chazu/automdl/pkg/materials"
	"github.com/chazu/automdl/pkg/mesh"
	"github.com/chazu/automdl/pkg/qc"
	"github.com/chazu/automdl/pkg/tessellate"
)

// ErrScript is returned when a prop script fails to evaluate.
var ErrScript = errors.New("export: script failed")

// Options controls how a script becomes a Job.
type Options struct {
	// ModelPath is used when the script's prop form sets no :model.
	ModelPath string

	OutputDir   string
	WeldEpsilon float64
	UVScale     float64

	// CDMaterialsMode and CDMaterials apply when the script sets no
	// :cdmaterials.
	CDMaterialsMode materials.Mode
	CDMaterials     []string

	MaterialsRoot string
	MakeVMTs      bool
	Workers       int
}

// FromScript evaluates a prop script and builds the export job for it: the
// graph is validated, both roles are tessellated concurrently, each part is
// welded and the parts of a role are merged into one mesh with projected
// UVs.
func FromScript(ctx context.Context, eng *engine.Engine, k kernel.Kernel, source string, opts Options) (Job, error) {
	g, evalErrs, err := eng.EvaluateContext(ctx, source)
	if err != nil {
		return Job{}, err
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return Job{}, fmt.Errorf("%w: %w", ErrScript, errors.Join(errs...))
	}

	Logger().Debug("evaluated prop script", "nodes", g.NodeCount(),
		"parts", lo.Map(g.Parts(), func(n *graph.Node, _ int) string { return n.Name }))

	r := graph.ValidateAll(g)
	for _, w := range r.Warnings {
		Logger().Warn("prop script", "warning", w.Message)
	}
	if !r.OK() {
		return Job{}, r.Err()
	}

	name := modelPath(g.Prop.ModelPath, opts.ModelPath)
	if name == "" {
		return Job{}, ErrNoModelPath
	}
	base := path.Base(name)

	var visual, collision *mesh.Mesh
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		m, err := buildRole(egctx, g, k, graph.RoleVisual, base+"_ref", opts)
		visual = m
		return err
	})
	eg.Go(func() error {
		m, err := buildRole(egctx, g, k, graph.RoleCollision, base+"_phy", opts)
		collision = m
		return err
	})
	if err := eg.Wait(); err != nil {
		return Job{}, err
	}
	if visual == nil {
		return Job{}, ErrNoVisual
	}

	mode, manual := opts.CDMaterialsMode, opts.CDMaterials
	if len(g.Prop.CDMaterials) > 0 {
		mode, manual = materials.Manual, g.Prop.CDMaterials
	}
	model := qc.Model{
		ModelPath:    name,
		Static:       g.Prop.Static,
		MostlyOpaque: g.Prop.MostlyOpaque,
		SurfaceProp:  g.Prop.SurfaceProp,
		CDMaterials:  materials.CDMaterials(mode, manual, name, visual.HasMaterials()),
		HasMaterials: visual.HasMaterials(),
		Mass:         g.Prop.Mass,
	}

	return Job{
		Model:         model,
		Visual:        visual,
		Collision:     collision,
		OutputDir:     opts.OutputDir,
		MaterialsRoot: opts.MaterialsRoot,
		MakeVMTs:      opts.MakeVMTs && mode == materials.Auto,
		Workers:       opts.Workers,
	}, nil
}

// modelPath normalizes the script's :model value, falling back to def:
// props/crate01.mdl and models/props/crate01.mdl both give props/crate01.
func modelPath(script, def string) string {
	p := strings.ReplaceAll(script, `\`, "/")
	if p == "" {
		p = def
	}
	p = strings.TrimPrefix(p, qc.ModelsDir+"/")
	return strings.TrimSuffix(p, path.Ext(p))
}

// buildRole tessellates the groups of one role into a single mesh. It
// returns nil when the role has no geometry.
func buildRole(ctx context.Context, g *graph.DesignGraph, k kernel.Kernel, role graph.GroupRole, name string, opts Options) (*mesh.Mesh, error) {
	soups, err := tessellate.Tessellate(g, k, role)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if len(soups) == 0 {
		return nil, nil
	}

	out := mesh.New(name)
	for _, soup := range soups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := mesh.Weld(soup, opts.WeldEpsilon)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		Logger().Debug("welded part", "role", role.String(), "part", soup.PartName,
			"soup_vertices", soup.VertexCount(), "vertices", part.VertexCount())
		out.Append(part)
	}
	out.ProjectUVs(opts.UVScale)
	return out, nil
}
