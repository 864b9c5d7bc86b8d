// Package export turns meshes into compiler input: the reference and
// collision SMD files and the QC script that ties them together.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/automdl/pkg/island"
	"github.com/chazu/automdl/pkg/materials"
	"github.com/chazu/automdl/pkg/mesh"
	"github.com/chazu/automdl/pkg/qc"
	"github.com/chazu/automdl/pkg/smd"
)

var (
	// ErrNoVisual is returned when a job has no visual geometry.
	ErrNoVisual = errors.New("export: no visual mesh")

	// ErrNoModelPath is returned when a job has no model path.
	ErrNoModelPath = errors.New("export: no model path")
)

// Job describes one model export.
type Job struct {
	// Model carries the QC settings. Empty mesh names are derived from
	// Model.ModelPath; Islands is filled in by Run.
	Model qc.Model

	Visual    *mesh.Mesh
	Collision *mesh.Mesh // nil for models without physics

	OutputDir string

	// MaterialsRoot, when set, is the project directory under which
	// materials/<cdmaterials entry> folders are created. MakeVMTs also
	// writes placeholder VMTs for the visual mesh's slots.
	MaterialsRoot string
	MakeVMTs      bool

	// Workers bounds concurrent file writes. Zero means no limit.
	Workers int
}

// Result reports what Run wrote.
type Result struct {
	QCPath        string
	VisualPath    string
	CollisionPath string
	MaterialFiles []string

	VisualTriangles    int
	CollisionTriangles int
	Islands            int
}

// Run validates the job's meshes, counts the collision islands, writes both
// SMD files concurrently and then the QC script. Nothing is written when
// validation fails, and SMD files already written are removed when the other
// one fails.
func Run(ctx context.Context, job Job) (Result, error) {
	var res Result
	if job.Visual == nil || job.Visual.IsEmpty() {
		return res, ErrNoVisual
	}
	if job.Model.ModelPath == "" {
		return res, ErrNoModelPath
	}
	if err := job.Visual.Validate(); err != nil {
		return res, fmt.Errorf("export: visual: %w", err)
	}

	m := job.Model
	ref, phy := qc.MeshNames(m.ModelPath)
	if m.VisualMesh == "" {
		m.VisualMesh = ref
	}
	res.VisualTriangles = job.Visual.TriangleCount()

	hasCollision := job.Collision != nil && !job.Collision.IsEmpty()
	if hasCollision {
		if err := job.Collision.Validate(); err != nil {
			return res, fmt.Errorf("export: collision: %w", err)
		}
		n, err := island.CountMesh(job.Collision)
		if err != nil {
			return res, fmt.Errorf("export: collision: %w", err)
		}
		if m.CollisionMesh == "" {
			m.CollisionMesh = phy
		}
		m.Islands = n
		res.Islands = n
		res.CollisionTriangles = job.Collision.TriangleCount()
		Logger().Debug("collision mesh", "triangles", res.CollisionTriangles, "islands", n)
	} else {
		m.CollisionMesh = ""
		m.Islands = 0
	}

	visualPolicy := smd.PolicyFor(job.Visual, false)
	if err := smd.Check(job.Visual, visualPolicy); err != nil {
		return res, fmt.Errorf("export: visual: %w", err)
	}
	var collisionPolicy smd.MaterialPolicy
	if hasCollision {
		collisionPolicy = smd.PolicyFor(job.Collision, true)
		if err := smd.Check(job.Collision, collisionPolicy); err != nil {
			return res, fmt.Errorf("export: collision: %w", err)
		}
	}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("export: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if job.Workers > 0 {
		g.SetLimit(job.Workers)
	}
	// written[i] is set by the goroutine that completed file i.
	var written [2]bool
	res.VisualPath = filepath.Join(job.OutputDir, m.VisualMesh+".smd")
	g.Go(func() error {
		err := writeSMD(gctx, res.VisualPath, job.Visual, visualPolicy)
		written[0] = err == nil
		return err
	})
	if hasCollision {
		res.CollisionPath = filepath.Join(job.OutputDir, m.CollisionMesh+".smd")
		g.Go(func() error {
			err := writeSMD(gctx, res.CollisionPath, job.Collision, collisionPolicy)
			written[1] = err == nil
			return err
		})
	}
	if err := g.Wait(); err != nil {
		for i, p := range [2]string{res.VisualPath, res.CollisionPath} {
			if written[i] {
				os.Remove(p)
			}
		}
		return Result{}, err
	}

	res.QCPath = filepath.Join(job.OutputDir, path.Base(m.ModelPath)+".qc")
	if err := writeFile(res.QCPath, func(f *os.File) error { return qc.Write(f, m) }); err != nil {
		return res, err
	}
	Logger().Info("wrote qc", "path", res.QCPath)

	if job.MaterialsRoot != "" && job.Visual.HasMaterials() {
		for _, entry := range m.CDMaterials {
			files, err := materials.WritePlaceholders(job.MaterialsRoot, entry, job.Visual.MaterialSlots, job.MakeVMTs)
			res.MaterialFiles = append(res.MaterialFiles, files...)
			if err != nil {
				return res, err
			}
		}
		for _, f := range res.MaterialFiles {
			Logger().Info("wrote placeholder material", "path", f)
		}
	}
	return res, nil
}

func writeSMD(ctx context.Context, p string, m *mesh.Mesh, policy smd.MaterialPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := writeFile(p, func(f *os.File) error { return smd.Encode(f, m, policy) })
	if err == nil {
		Logger().Info("wrote smd", "path", p, "triangles", m.TriangleCount())
	}
	return err
}

// writeFile creates p and fills it with fn. A failed write removes the
// partial file.
func writeFile(p string, fn func(*os.File) error) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	werr := fn(f)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(p)
		return fmt.Errorf("export: %s: %w", filepath.Base(p), werr)
	}
	return nil
}
