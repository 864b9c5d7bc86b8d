package qc

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ModelsDir is the directory name model sources must live under.
const ModelsDir = "models"

// ErrNoModelsDir is returned for paths with no models directory component.
var ErrNoModelsDir = errors.New("qc: path is not inside a models directory")

// splitModels returns the components of p and the index of its last
// models component.
func splitModels(p string) ([]string, int, error) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(p)), "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == ModelsDir {
			return parts, i, nil
		}
	}
	return nil, 0, ErrNoModelsDir
}

// ModelsRelativePath returns p relative to its last models directory, with
// forward slashes and without extension:
//
//	/src/mod/models/props/crate01.lisp -> props/crate01
func ModelsRelativePath(p string) (string, error) {
	parts, i, err := splitModels(p)
	if err != nil {
		return "", err
	}
	rel := strings.Join(parts[i+1:], "/")
	return strings.TrimSuffix(rel, path.Ext(rel)), nil
}

// ProjectRoot returns the directory holding the models directory of p,
// where the materials directory lives as well.
func ProjectRoot(p string) (string, error) {
	parts, i, err := splitModels(p)
	if err != nil {
		return "", err
	}
	if i == 0 {
		if filepath.IsAbs(p) {
			return string(filepath.Separator), nil
		}
		return ".", nil
	}
	root := strings.Join(parts[:i], "/")
	if root == "" {
		root = "/"
	}
	return filepath.FromSlash(root), nil
}

// MeshNames returns the reference and collision SMD names for a model path.
func MeshNames(modelPath string) (ref, phy string) {
	base := path.Base(strings.TrimSuffix(modelPath, path.Ext(modelPath)))
	return base + "_ref", base + "_phy"
}
