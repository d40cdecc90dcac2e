package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
)

// ErrLoad reports that the node library could not be loaded.
var ErrLoad = errors.New("registry: load node library")

// NodesDir is the workspace-relative directory holding node definition files.
const NodesDir = "nodes"

// Source produces the raw node definitions of a workspace.
type Source interface {
	Load(workspace string) ([]NodeDefinition, error)
}

// FileSource reads every *.yaml / *.yml file under <workspace>/nodes.
type FileSource struct{}

// nodeFile is the on-disk shape of a node definition file.
type nodeFile struct {
	Nodes []NodeDefinition `yaml:"nodes" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load implements Source. A missing nodes directory yields an empty library.
func (FileSource) Load(workspace string) ([]NodeDefinition, error) {
	root := filepath.Join(workspace, NodesDir)
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %w", ErrLoad, root, err)
	}
	sort.Strings(paths)

	var defs []NodeDefinition
	for _, path := range paths {
		got, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, got...)
	}
	return defs, nil
}

func loadFile(path string) ([]NodeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, path, err)
	}
	var f nodeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrLoad, path, err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return f.Nodes, nil
}

// StaticSource serves a fixed definition list, mostly for tests.
type StaticSource []NodeDefinition

// Load implements Source.
func (s StaticSource) Load(string) ([]NodeDefinition, error) {
	return append([]NodeDefinition(nil), s...), nil
}

// Build filters defs to those available in scope and indexes them by name.
// Names that are not valid identifiers cannot be called from graph code and
// are skipped. Two definitions sharing a name within one scope is an error.
func Build(defs []NodeDefinition, scope Scope) (*Registry, error) {
	r := &Registry{scope: scope, byName: make(map[string]NodeDefinition)}
	for _, d := range defs {
		if !d.AvailableIn(scope) || !graphcode.IsIdentifier(d.Name) {
			continue
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate node %q in scope %s", ErrLoad, d.Name, scope)
		}
		r.byName[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	return r, nil
}
