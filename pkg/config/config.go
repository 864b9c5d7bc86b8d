// Package config loads build settings from a JSON file and merges them
// with command line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/chazu/automdl/pkg/engine"
	"github.com/chazu/automdl/pkg/kernel/sdfx"
	"github.com/chazu/automdl/pkg/materials"
	"github.com/chazu/automdl/pkg/mesh"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid setting")

// Duration is a time.Duration read from strings such as "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds all build settings.
type Config struct {
	// Paths
	OutputDir  string `json:"output_dir"`
	ModelsRoot string `json:"models_root"`

	// Geometry
	MeshCells   int     `json:"mesh_cells"`
	WeldEpsilon float64 `json:"weld_epsilon"`
	UVScale     float64 `json:"uv_scale"`

	// Materials
	CDMaterialsMode     string   `json:"cdmaterials_mode"`
	CDMaterials         []string `json:"cdmaterials"`
	MakeMaterialFolders bool     `json:"make_material_folders"`
	MakeVMTs            bool     `json:"make_vmts"`

	// Execution
	Workers     int      `json:"workers"`
	EvalTimeout Duration `json:"eval_timeout"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir  string
	ModelsRoot string
	Cells      int
	Workers    int
}

// Resolve applies flag overrides and fills empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.ModelsRoot != "" {
		c.ModelsRoot = flags.ModelsRoot
	}
	if flags.Cells > 0 {
		c.MeshCells = flags.Cells
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.ModelsRoot != "" && !filepath.IsAbs(c.ModelsRoot) {
		if abs, err := filepath.Abs(c.ModelsRoot); err == nil {
			c.ModelsRoot = abs
		}
	}

	if c.MeshCells <= 0 {
		c.MeshCells = sdfx.DefaultCells
	}
	if c.WeldEpsilon <= 0 {
		c.WeldEpsilon = mesh.DefaultWeldEpsilon
	}
	if c.UVScale == 0 {
		c.UVScale = 1.0 / 32
	}
	if c.CDMaterialsMode == "" {
		c.CDMaterialsMode = materials.Auto.String()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.EvalTimeout <= 0 {
		c.EvalTimeout = Duration(engine.EvalTimeout)
	}
}

// Mode returns the parsed cdmaterials mode.
func (c *Config) Mode() (materials.Mode, error) {
	return materials.ParseMode(c.CDMaterialsMode)
}

// Validate reports settings Resolve cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Mode(); err != nil {
		errs = append(errs, err)
	}
	if c.UVScale < 0 {
		errs = append(errs, fmt.Errorf("uv_scale %g must be positive", c.UVScale))
	}
	if c.ModelsRoot != "" && filepath.Base(c.ModelsRoot) != "models" {
		errs = append(errs, fmt.Errorf("models_root %s must be a directory named models", c.ModelsRoot))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
