// Package materials resolves the $cdmaterials search paths of a model and
// creates placeholder VMT files for its material slots.
package materials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/valyala/fasttemplate"
)

// Mode selects how search paths are chosen.
type Mode int

const (
	// Auto derives a single path from the model location.
	Auto Mode = iota
	// Manual uses the configured list.
	Manual
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Manual:
		return "manual"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "auto" or "manual". The empty string is Auto.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "manual":
		return Manual, nil
	}
	return Auto, fmt.Errorf("materials: unknown cdmaterials mode %q", s)
}

// CDMaterials returns the search paths for a model, in order and without
// duplicates. Models without materials get none. Auto mode yields
// models/<directory of modelPath>; manual entries are normalized to forward
// slashes with a trailing slash.
func CDMaterials(mode Mode, manual []string, modelPath string, hasMaterials bool) []string {
	if !hasMaterials {
		return nil
	}
	if mode == Auto {
		dir := path.Dir(filepath.ToSlash(modelPath))
		if dir == "." {
			dir = ""
		}
		return []string{"models/" + dir}
	}

	entries := lo.FilterMap(manual, func(e string, _ int) (string, bool) {
		e = strings.TrimSpace(strings.ReplaceAll(e, `\`, "/"))
		if e == "" {
			return "", false
		}
		return strings.TrimSuffix(e, "/") + "/", true
	})
	return lo.Uniq(entries)
}

var vmtTmpl = fasttemplate.New("VertexLitGeneric\n{\n\t$basetexture \"{{texture}}\"\n}", "{{", "}}")

// VMT returns the placeholder material text for a search path entry.
func VMT(entry string) string {
	return vmtTmpl.ExecuteString(map[string]interface{}{
		"texture": path.Join(filepath.ToSlash(entry), "_PLACEHOLDER_"),
	})
}

// WritePlaceholders creates <root>/materials/<entry> and, when makeVMTs is
// set, a placeholder <slot>.vmt for every slot. Existing VMT files are left
// untouched. It returns the files it created.
func WritePlaceholders(root, entry string, slots []string, makeVMTs bool) ([]string, error) {
	dir := filepath.Join(root, "materials", filepath.FromSlash(entry))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}
	if !makeVMTs {
		return nil, nil
	}

	var created []string
	body := []byte(VMT(entry))
	for _, slot := range lo.Uniq(slots) {
		p := filepath.Join(dir, slot+".vmt")
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("materials: %w", err)
		}
		_, werr := f.Write(body)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return created, fmt.Errorf("materials: %s: %w", p, werr)
		}
		created = append(created, p)
	}
	return created, nil
}
