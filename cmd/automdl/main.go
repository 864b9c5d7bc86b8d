// Command automdl builds compiler input for static and physics props from
// prop scripts or OBJ meshes.
//
// Usage:
//
//	automdl build -script models/props/crate01.lisp [-config automdl.json] [-out dir]
//	automdl smd -in mesh.obj -out mesh.smd [-collision] [-project-uvs]
//	automdl islands -in mesh.obj
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/chazu/automdl/pkg/config"
	"github.com/chazu/automdl/pkg/engine"
	"github.com/chazu/automdl/pkg/export"
	"github.com/chazu/automdl/pkg/island"
	"github.com/chazu/automdl/pkg/kernel/sdfx"
	"github.com/chazu/automdl/pkg/mesh"
	"github.com/chazu/automdl/pkg/obj"
	"github.com/chazu/automdl/pkg/qc"
	"github.com/chazu/automdl/pkg/smd"
)

const usage = `usage: automdl <command> [flags]

commands:
  build     evaluate a prop script and write SMD and QC files
  smd       convert an OBJ mesh to SMD
  islands   count the disconnected pieces of an OBJ mesh
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	switch args[0] {
	case "build":
		return runBuild(ctx, args[1:], stdout, stderr)
	case "smd":
		return runSMD(args[1:], stdout, stderr)
	case "islands":
		return runIslands(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

// setupLogging routes pipeline logs to stderr. -v enables debug output.
func setupLogging(stderr io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	export.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

func runBuild(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to config JSON file")
	script := fs.String("script", "", "Prop script to build (required)")
	outputDir := fs.String("out", "", "Output directory (default: .)")
	modelsRoot := fs.String("models-root", "", "Game models directory, used to place material folders")
	cells := fs.Int("cells", 0, "Marching cubes resolution (default: 100)")
	workers := fs.Int("workers", 0, "Concurrent file writes (default: NumCPU)")
	verbose := fs.Bool("v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *script == "" {
		fs.Usage()
		return fmt.Errorf("%w: -script is required", errUsage)
	}
	setupLogging(stderr, *verbose)

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return err
		}
	}
	cfg.Resolve(config.Flags{
		OutputDir:  *outputDir,
		ModelsRoot: *modelsRoot,
		Cells:      *cells,
		Workers:    *workers,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, _ := cfg.Mode()

	source, err := os.ReadFile(*script)
	if err != nil {
		return err
	}

	opts := export.Options{
		OutputDir:       cfg.OutputDir,
		WeldEpsilon:     cfg.WeldEpsilon,
		UVScale:         cfg.UVScale,
		CDMaterialsMode: mode,
		CDMaterials:     cfg.CDMaterials,
		MakeVMTs:        cfg.MakeVMTs,
		Workers:         cfg.Workers,
	}
	if rel, err := qc.ModelsRelativePath(*script); err == nil {
		opts.ModelPath = rel
	}
	if cfg.MakeMaterialFolders {
		opts.MaterialsRoot = materialsRoot(cfg.ModelsRoot, *script)
	}

	start := time.Now()
	eng := engine.NewEngine(engine.WithTimeout(time.Duration(cfg.EvalTimeout)))
	k := sdfx.New(sdfx.WithCells(cfg.MeshCells))
	export.Logger().Debug("building", "script", *script, "cells", k.Cells(), "workers", cfg.Workers)
	job, err := export.FromScript(ctx, eng, k, string(source), opts)
	if err != nil {
		return err
	}
	res, err := export.Run(ctx, job)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Model:     %s.mdl\n", job.Model.ModelPath)
	fmt.Fprintf(stdout, "Reference: %s (%d triangles)\n", res.VisualPath, res.VisualTriangles)
	if res.CollisionPath != "" {
		fmt.Fprintf(stdout, "Collision: %s (%d triangles, %d islands)\n", res.CollisionPath, res.CollisionTriangles, res.Islands)
	}
	fmt.Fprintf(stdout, "QC:        %s\n", res.QCPath)
	for _, f := range res.MaterialFiles {
		fmt.Fprintf(stdout, "Material:  %s\n", f)
	}
	fmt.Fprintf(stdout, "Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// materialsRoot picks the directory that holds materials/: the parent of
// the configured models root, else the project root of the script.
func materialsRoot(modelsRoot, script string) string {
	if modelsRoot != "" {
		return filepath.Dir(modelsRoot)
	}
	abs, err := filepath.Abs(script)
	if err != nil {
		return ""
	}
	root, err := qc.ProjectRoot(abs)
	if err != nil {
		return ""
	}
	return root
}

func loadOBJ(fs *flag.FlagSet, in string) (*mesh.Mesh, error) {
	if in == "" {
		fs.Usage()
		return nil, fmt.Errorf("%w: -in is required", errUsage)
	}
	return obj.Load(in)
}

func runSMD(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("smd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "OBJ mesh to convert (required)")
	out := fs.String("out", "", "SMD file to write (default: stdout)")
	collision := fs.Bool("collision", false, "Write a collision mesh (all triangles use the Phy material)")
	projectUVs := fs.Bool("project-uvs", false, "Generate box-projected UVs, replacing any in the file")
	uvScale := fs.Float64("uv-scale", 1.0/32, "UV scale for -project-uvs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := loadOBJ(fs, *in)
	if err != nil {
		return err
	}
	if *projectUVs {
		m.ProjectUVs(*uvScale)
	}
	if err := m.Validate(); err != nil {
		return err
	}

	policy := smd.PolicyFor(m, *collision)
	if *out == "" {
		return smd.Encode(stdout, m, policy)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := smd.Encode(f, m, policy); err != nil {
		f.Close()
		os.Remove(*out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Wrote %s (%d triangles)\n", *out, m.TriangleCount())
	return nil
}

func runIslands(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("islands", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "OBJ mesh to inspect (required)")
	sizes := fs.Bool("sizes", false, "Also print the vertex count of each island")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := loadOBJ(fs, *in)
	if err != nil {
		return err
	}
	adj, err := island.NewAdjacency(m.VertexIndices(), m.Edges())
	if err != nil {
		return err
	}
	if !*sizes {
		fmt.Fprintln(stdout, adj.Count())
		return nil
	}
	islands := adj.Islands()
	fmt.Fprintln(stdout, len(islands))
	for i, is := range islands {
		fmt.Fprintf(stdout, "  island %d: %d vertices\n", i, len(is))
	}
	return nil
}
