// Package graphcheck is the embeddable entry point of the graph validator.
//
// A Checker validates generated graph source files of one workspace against
// the code rules, reusing results from the workspace validation cache. Package
// level validation goes through NewComprehensiveValidator.
package graphcheck

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/cache"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate/coderules"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate/pkgrules"
)

// ComprehensiveValidator runs the package rules over one package.
type ComprehensiveValidator = pkgrules.ComprehensiveValidator

type options struct {
	workspace  string
	config     *validate.Config
	registries *registry.Cache
	resources  pkgmodel.ResourceAccessor
	log        *zap.SugaredLogger
	noCache    bool
}

// Option configures a Checker or a ComprehensiveValidator.
type Option func(*options)

// WithWorkspace sets the workspace root a ComprehensiveValidator resolves its
// node library from. It defaults to the current directory.
func WithWorkspace(dir string) Option { return func(o *options) { o.workspace = dir } }

// WithConfig replaces the config read from graphcheck.yaml.
func WithConfig(cfg validate.Config) Option { return func(o *options) { o.config = &cfg } }

// WithRegistries shares a registry cache across checkers.
func WithRegistries(c *registry.Cache) Option { return func(o *options) { o.registries = c } }

// WithResources replaces the resources loaded from the workspace.
func WithResources(res pkgmodel.ResourceAccessor) Option {
	return func(o *options) { o.resources = res }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.SugaredLogger) Option { return func(o *options) { o.log = log } }

// WithoutCache disables the on-disk validation cache.
func WithoutCache() Option { return func(o *options) { o.noCache = true } }

func buildOptions(opts []Option) options {
	o := options{workspace: "."}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}
	return o
}

func newEnv(workspace string, o options) (*validate.Env, error) {
	cfg := validate.DefaultConfig()
	if o.config != nil {
		cfg = *o.config
	} else {
		loaded, err := validate.LoadConfig(workspace)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	res := o.resources
	if res == nil {
		store, err := pkgmodel.LoadResources(workspace)
		if err != nil {
			return nil, err
		}
		res = store
	}
	return validate.NewEnv(workspace, validate.EnvOptions{
		Config:     cfg,
		Registries: o.registries,
		Resources:  res,
		Log:        o.log,
	})
}

// Checker validates graph source files of one workspace.
type Checker struct {
	env         *validate.Env
	pipeline    *validate.Pipeline
	fingerprint string
	cache       *cache.File
	log         *zap.SugaredLogger
}

// New loads the config, resources and node library of workspace. A node
// library that fails to load is returned as an error wrapping
// registry.ErrLoad.
func New(workspace string, opts ...Option) (*Checker, error) {
	o := buildOptions(opts)
	env, err := newEnv(workspace, o)
	if err != nil {
		return nil, err
	}
	pipeline := coderules.NewPipeline()
	fp, err := validate.Fingerprint(env.Config, pipeline.Rules())
	if err != nil {
		return nil, err
	}
	c := &Checker{env: env, pipeline: pipeline, fingerprint: fp, log: o.log}
	if env.Config.Cache && !o.noCache {
		c.cache = cache.Load(workspace)
	}
	return c, nil
}

// Env returns the shared run state.
func (c *Checker) Env() *validate.Env { return c.env }

// Rules returns the code rules in the order they run.
func (c *Checker) Rules() []validate.Rule { return c.pipeline.Rules() }

// Fingerprint returns the rules fingerprint cached results are keyed by.
func (c *Checker) Fingerprint() string { return c.fingerprint }

// CheckFile validates one graph source file. Only an unreadable file or a
// cancelled context is an error.
func (c *Checker) CheckFile(ctx context.Context, path string) ([]issue.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws := c.env.Workspace
	if c.cache != nil {
		if got, ok := cache.TryGet(ws, path, c.cache, c.fingerprint); ok {
			c.log.Debugw("cache hit", "file", c.env.Rel(path), "issues", len(got))
			return got, nil
		}
	}
	vctx, err := c.env.FileContext(ctx, path)
	if err != nil {
		return nil, err
	}
	found := c.pipeline.Run(vctx)
	if c.cache != nil {
		if err := cache.Update(ws, path, c.cache, c.fingerprint, found); err != nil {
			c.log.Warnw("cache update failed", "file", vctx.RelPath, "error", err)
		}
	}
	return found, nil
}

// CheckSource validates in-memory source as if it were stored at the
// workspace-relative path rel. The cache is not consulted.
func (c *Checker) CheckSource(ctx context.Context, rel string, src []byte) ([]issue.Issue, error) {
	vctx, err := c.env.SourceContext(ctx, rel, src)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Run(vctx), nil
}

// SaveCache persists the cache when it is enabled.
func (c *Checker) SaveCache() error {
	if c.cache == nil {
		return nil
	}
	return cache.Save(c.env.Workspace, c.cache)
}

// ValidateFile validates one graph source file of workspace and reports
// whether it passed together with its error and warning messages.
func ValidateFile(workspace, path string) (passed bool, errs, warns []string, err error) {
	c, err := New(workspace)
	if err != nil {
		return false, nil, nil, err
	}
	issues, err := c.CheckFile(context.Background(), path)
	if err != nil {
		return false, nil, nil, err
	}
	if err := c.SaveCache(); err != nil {
		c.log.Warnw("cache save failed", "error", err)
	}
	errs, warns = issue.Split(issues)
	return !issue.HasErrors(issues), errs, warns, nil
}

// GraphUnit identifies one graph source file.
type GraphUnit struct {
	Workspace string
	Path      string
}

// NodeGraphError carries the failures of a graph self-check.
type NodeGraphError struct {
	Path     string
	Errors   []string
	Warnings []string
}

func (e *NodeGraphError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, msg := range e.Errors {
		lines = append(lines, "[X] "+msg)
	}
	return strings.Join(lines, "\n")
}

type unitResult struct {
	once sync.Once
	err  error
}

var units sync.Map // absolute path -> *unitResult

// ValidateNodeGraph self-checks unit once per process. Later calls for the
// same file return the first result. Failing rules yield a *NodeGraphError.
func ValidateNodeGraph(unit GraphUnit) error {
	key, err := filepath.Abs(unit.Path)
	if err != nil {
		key = unit.Path
	}
	v, _ := units.LoadOrStore(key, &unitResult{})
	r := v.(*unitResult)
	r.once.Do(func() {
		ws := unit.Workspace
		if ws == "" {
			ws = "."
		}
		passed, errs, warns, err := ValidateFile(ws, unit.Path)
		switch {
		case err != nil:
			r.err = fmt.Errorf("graphcheck: %s: %w", unit.Path, err)
		case !passed:
			r.err = &NodeGraphError{Path: unit.Path, Errors: errs, Warnings: warns}
		}
	})
	return r.err
}

// NewComprehensiveValidator returns a package validator for pkg. Resources
// default to res; the node library comes from the WithWorkspace directory.
func NewComprehensiveValidator(pkg *pkgmodel.Package, res pkgmodel.ResourceAccessor, opts ...Option) (*ComprehensiveValidator, error) {
	o := buildOptions(opts)
	if o.resources == nil {
		o.resources = res
	}
	env, err := newEnv(o.workspace, o)
	if err != nil {
		return nil, err
	}
	return pkgrules.NewComprehensiveValidator(pkg, o.resources, env, nil), nil
}

// EnableValidationProfiling turns per-rule timing on or off process-wide.
func EnableValidationProfiling(on bool) { validate.EnableProfiling(on) }

// ValidationProfilingStats returns the accumulated per-rule timings.
func ValidationProfilingStats() map[string]validate.RuleStats { return validate.ProfilingStats() }

// ResetValidationProfilingStats clears the accumulated timings.
func ResetValidationProfilingStats() { validate.ResetProfilingStats() }
