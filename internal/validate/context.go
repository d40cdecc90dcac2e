package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
)

// Workspace-relative directories of graph and composite node sources.
const (
	GraphSourceDir = "graphs"
	CompositeDir   = "composite_nodes"
)

// Context is the read-only input of one pipeline run. It is either in file
// mode (Module set) or package mode (Package set).
type Context struct {
	Workspace string
	// RelPath is the workspace-relative slash path of the checked file, or a
	// display name for in-memory sources.
	RelPath string

	Source      []byte
	Module      *graphcode.Module
	Diagnostics []graphcode.Diagnostic
	Scope       registry.Scope
	IsComposite bool

	Package   *pkgmodel.Package
	Resources pkgmodel.ResourceAccessor

	// Catalog indexes the signals and structs visible to the run; may be nil.
	Catalog  *pkgmodel.Catalog
	Registry *registry.Registry
	Config   Config
	Env      *Env
	Log      *zap.SugaredLogger
}

// FileMode reports whether the context carries a parsed source file.
func (c *Context) FileMode() bool { return c.Module != nil }

// PackageMode reports whether the context carries a package.
func (c *Context) PackageMode() bool { return c.Package != nil }

// Logger returns the context logger, or a no-op logger.
func (c *Context) Logger() *zap.SugaredLogger {
	if c.Log == nil {
		return zap.NewNop().Sugar()
	}
	return c.Log
}

// Env is the shared state of a validation run: config, warmed registries for
// every scope, the tree cache and the signal/struct catalog. After NewEnv
// returns it is safe to build contexts from several goroutines.
type Env struct {
	Workspace string
	Config    Config
	Trees     *TreeCache
	Catalog   *pkgmodel.Catalog
	Log       *zap.SugaredLogger

	cache      *registry.Cache
	mu         sync.RWMutex
	registries map[registry.Scope]*registry.Registry
}

// EnvOptions configures NewEnv.
type EnvOptions struct {
	Config     Config
	Registries *registry.Cache
	Trees      *TreeCache
	Resources  pkgmodel.ResourceAccessor
	Log        *zap.SugaredLogger
}

// NewEnv resolves and warms the server and client registries of workspace.
// A node library that fails to load is returned as an error wrapping
// registry.ErrLoad; no rule runs in that case.
func NewEnv(workspace string, opts EnvOptions) (*Env, error) {
	if opts.Registries == nil {
		opts.Registries = registry.NewCache(nil)
	}
	if opts.Trees == nil {
		opts.Trees = NewTreeCache()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	e := &Env{
		Workspace: workspace,
		Config:    opts.Config,
		Trees:     opts.Trees,
		Catalog:   pkgmodel.NewCatalog(opts.Resources),
		Log:       opts.Log,
		cache:     opts.Registries,
	}
	regs, err := e.resolve()
	if err != nil {
		return nil, err
	}
	e.registries = regs
	return e, nil
}

func (e *Env) resolve() (map[registry.Scope]*registry.Registry, error) {
	regs := make(map[registry.Scope]*registry.Registry, 2)
	for _, scope := range []registry.Scope{registry.ScopeServer, registry.ScopeClient} {
		r, err := e.cache.Resolve(e.Workspace, scope)
		if err != nil {
			return nil, err
		}
		r.Warm()
		regs[scope] = r
	}
	return regs, nil
}

// Refresh drops the parsed trees and the memoized registries, then reloads the
// node library. On failure the previous registries stay in place. It must not
// run concurrently with context construction on the same Env.
func (e *Env) Refresh() error {
	e.Trees.Clear()
	e.cache.Clear()
	regs, err := e.resolve()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.registries = regs
	e.mu.Unlock()
	return nil
}

// Registry returns the warmed registry of scope.
func (e *Env) Registry(scope registry.Scope) *registry.Registry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registries[scope]
}

// FileContext reads path and builds a file-mode context for it. Only a read
// failure or cancellation is an error; syntax problems become diagnostics.
func (e *Env) FileContext(ctx context.Context, path string) (*Context, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", graphcode.ErrSource, err)
	}
	return e.SourceContext(ctx, e.Rel(path), src)
}

// SourceContext builds a file-mode context for in-memory source. rel is the
// workspace-relative path used for scope detection and reporting.
func (e *Env) SourceContext(ctx context.Context, rel string, src []byte) (*Context, error) {
	mod, diags, err := e.Trees.Parse(ctx, rel, src)
	if err != nil {
		return nil, err
	}
	scope := DetectScope(rel, mod)
	return &Context{
		Workspace:   e.Workspace,
		RelPath:     rel,
		Source:      src,
		Module:      mod,
		Diagnostics: diags,
		Scope:       scope,
		IsComposite: DetectComposite(rel, mod),
		Catalog:     e.Catalog,
		Registry:    e.Registry(scope),
		Config:      e.Config,
		Env:         e,
		Log:         e.Log,
	}, nil
}

// PackageContext builds a package-mode context.
func (e *Env) PackageContext(pkg *pkgmodel.Package, res pkgmodel.ResourceAccessor) *Context {
	return &Context{
		Workspace: e.Workspace,
		RelPath:   pkg.ID,
		Package:   pkg,
		Resources: res,
		Scope:     registry.ScopeServer,
		Catalog:   pkgmodel.NewCatalog(res),
		Registry:  e.Registry(registry.ScopeServer),
		Config:    e.Config,
		Env:       e,
		Log:       e.Log,
	}
}

// Rel returns path relative to the workspace with forward slashes. Paths
// outside the workspace are returned cleaned and slash-separated.
func (e *Env) Rel(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	ws, err := filepath.Abs(e.Workspace)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(ws, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// DetectScope returns client when the docstring declares graph_type: client
// or any path segment is "client".
func DetectScope(rel string, mod *graphcode.Module) registry.Scope {
	if mod != nil && mod.IsClient() {
		return registry.ScopeClient
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == string(registry.ScopeClient) {
			return registry.ScopeClient
		}
	}
	return registry.ScopeServer
}

// DetectComposite reports whether the source defines a composite node.
func DetectComposite(rel string, mod *graphcode.Module) bool {
	if rel == CompositeDir || strings.HasPrefix(rel, CompositeDir+"/") || strings.Contains(rel, "/"+CompositeDir+"/") {
		return true
	}
	return mod != nil && mod.IsComposite()
}
