package pkgmodel

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
)

// ErrLoad reports that package or resource data could not be loaded.
var ErrLoad = errors.New("pkgmodel: load package data")

// Workspace-relative locations of package data.
const (
	PackagesDir     = "packages"
	PackageManifest = "package.yaml"
	ResourcesDir    = "resources"
	GraphsDir       = "resources/graphs"
	CompositesDir   = "resources/composites"
	SignalsFile     = "resources/signals.yaml"
	StructsFile     = "resources/structs.yaml"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PackageIDs lists the package directories that carry a manifest.
func PackageIDs(workspace string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(workspace, PackagesDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(workspace, PackagesDir, e.Name(), PackageManifest)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadPackage reads <workspace>/packages/<id>/package.yaml. A manifest without
// an id takes the directory name.
func LoadPackage(workspace, id string) (*Package, error) {
	path := filepath.Join(workspace, PackagesDir, id, PackageManifest)
	var pkg Package
	if err := decodeFile(path, &pkg); err != nil {
		return nil, err
	}
	if pkg.ID == "" {
		pkg.ID = id
	}
	if err := validate.Struct(pkg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return &pkg, nil
}

// LoadResources reads every graph, composite, signal and struct under
// <workspace>/resources into a Store. Graph sources named by source_path are
// read relative to the workspace; a missing source leaves Source empty.
func LoadResources(workspace string) (*Store, error) {
	s := NewStore()

	err := walkYAML(filepath.Join(workspace, GraphsDir), func(path string) error {
		var g GraphResource
		if err := decodeFile(path, &g); err != nil {
			return err
		}
		if err := validate.Struct(g); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
		}
		if g.SourcePath != "" {
			src, err := os.ReadFile(filepath.Join(workspace, filepath.FromSlash(g.SourcePath)))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: read graph source %s: %w", ErrLoad, g.SourcePath, err)
			}
			g.Source = src
		}
		if _, dup := s.graphs[g.ID]; dup {
			return fmt.Errorf("%w: duplicate graph id %q in %s", ErrLoad, g.ID, path)
		}
		s.AddGraph(&g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = walkYAML(filepath.Join(workspace, CompositesDir), func(path string) error {
		var c CompositeNode
		if err := decodeFile(path, &c); err != nil {
			return err
		}
		if err := validate.Struct(c); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
		}
		s.AddComposite(c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var signals struct {
		Signals []Signal `yaml:"signals" validate:"dive"`
	}
	if err := decodeOptional(filepath.Join(workspace, SignalsFile), &signals); err != nil {
		return nil, err
	}
	for _, sig := range signals.Signals {
		s.AddSignal(sig)
	}

	var structs struct {
		Structs []Struct `yaml:"structs" validate:"dive"`
	}
	if err := decodeOptional(filepath.Join(workspace, StructsFile), &structs); err != nil {
		return nil, err
	}
	for _, st := range structs.Structs {
		s.AddStruct(st)
	}
	return s, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrLoad, path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrLoad, path, err)
	}
	return nil
}

// decodeOptional decodes and validates path when it exists.
func decodeOptional(path string, v any) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := decodeFile(path, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return nil
}

func walkYAML(root string, fn func(path string) error) error {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: walk %s: %w", ErrLoad, root, err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}
