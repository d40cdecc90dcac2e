package validate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate/coderules"
)

type fakeRule struct {
	id   string
	rev  int
	emit []string
}

func (r fakeRule) ID() string       { return r.id }
func (r fakeRule) Category() string { return issue.CategoryCodeStyle }
func (r fakeRule) Package() string  { return "fake" }
func (r fakeRule) Revision() int    { return r.rev }

func (r fakeRule) Apply(*validate.Context) []issue.Issue {
	var out []issue.Issue
	for _, code := range r.emit {
		out = append(out, issue.Errorf(r.Category(), code, "%s from %s", code, r.id))
	}
	return out
}

func newEnv(t *testing.T) *validate.Env {
	t.Helper()
	env, err := validate.NewEnv(t.TempDir(), validate.EnvOptions{
		Config:     validate.DefaultConfig(),
		Registries: registry.NewCache(registry.StaticSource{{Name: "加法运算", Category: "运算节点"}}),
	})
	require.NoError(t, err)
	return env
}

func TestPipeline_ConcatenatesInRuleOrder(t *testing.T) {
	p := validate.NewPipeline(
		fakeRule{id: "a", emit: []string{"A1", "A2"}},
		fakeRule{id: "b", emit: []string{"B1"}},
		fakeRule{id: "c", emit: []string{"A1"}},
	)
	ctx := &validate.Context{Config: validate.DefaultConfig()}

	got := p.Run(ctx)
	codes := make([]string, len(got))
	for i, is := range got {
		codes[i] = is.Code
	}
	assert.Equal(t, []string{"A1", "A2", "B1", "A1"}, codes)
}

func TestPipeline_Idempotent(t *testing.T) {
	env := newEnv(t)
	ctx, err := env.SourceContext(context.Background(), "graphs/a.py", []byte("x = 加法运算(self.game)\n"))
	require.NoError(t, err)

	p := validate.NewPipeline(fakeRule{id: "a", emit: []string{"A1"}}, fakeRule{id: "b", emit: []string{"B1"}})
	assert.Equal(t, p.Run(ctx), p.Run(ctx))
}

func TestPipeline_SkipsDisabledRules(t *testing.T) {
	cfg := validate.DefaultConfig()
	cfg.DisabledRules = []string{"b"}
	p := validate.NewPipeline(fakeRule{id: "a", emit: []string{"A1"}}, fakeRule{id: "b", emit: []string{"B1"}})

	got := p.Run(&validate.Context{Config: cfg})
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Code)
}

func TestProfiling(t *testing.T) {
	validate.ResetProfilingStats()
	t.Cleanup(func() {
		validate.EnableProfiling(false)
		validate.ResetProfilingStats()
	})

	p := validate.NewPipeline(fakeRule{id: "profiled"})
	ctx := &validate.Context{Config: validate.DefaultConfig()}

	p.Run(ctx)
	assert.Empty(t, validate.ProfilingStats())

	validate.EnableProfiling(true)
	p.Run(ctx)
	p.Run(ctx)
	stats := validate.ProfilingStats()
	assert.Equal(t, 2, stats["profiled"].Calls)

	mfs, err := validate.Metrics.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "graphcheck_rule_duration_seconds" {
			found = true
		}
	}
	assert.True(t, found)

	validate.ResetProfilingStats()
	assert.Empty(t, validate.ProfilingStats())
}

func TestFingerprint(t *testing.T) {
	cfg := validate.DefaultConfig()
	rules := []validate.Rule{fakeRule{id: "a", rev: 1}, fakeRule{id: "b", rev: 1}}

	fp1, err := validate.Fingerprint(cfg, rules)
	require.NoError(t, err)
	fp2, err := validate.Fingerprint(cfg, []validate.Rule{rules[1], rules[0]})
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "order and duplicates do not matter")

	bumped, err := validate.Fingerprint(cfg, []validate.Rule{fakeRule{id: "a", rev: 2}})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, bumped)

	changed := cfg
	changed.LongWireUsageMax = 5
	fp3, err := validate.Fingerprint(changed, rules)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)

	workers := cfg
	workers.Workers = 8
	workers.Cache = false
	fp4, err := validate.Fingerprint(workers, rules)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp4, "run switches are not part of the fingerprint")
}

func TestFingerprint_RuleSetChanges(t *testing.T) {
	cfg := validate.DefaultConfig()
	all := coderules.Default()

	full, err := validate.Fingerprint(cfg, all)
	require.NoError(t, err)
	first, err := validate.Fingerprint(cfg, all[:1])
	require.NoError(t, err)
	assert.NotEqual(t, full, first, "dropping rules must invalidate cached results")

	extra, err := validate.Fingerprint(cfg, append(append([]validate.Rule{}, all...), fakeRule{id: "code.new", rev: 1}))
	require.NoError(t, err)
	assert.NotEqual(t, full, extra, "adding a rule must invalidate cached results")

	again, err := validate.Fingerprint(cfg, coderules.Default())
	require.NoError(t, err)
	assert.Equal(t, full, again)
}

func TestTreeCache(t *testing.T) {
	c := validate.NewTreeCache()
	ctx := context.Background()

	m1, _, err := c.Parse(ctx, "a.py", []byte("x = 1\n"))
	require.NoError(t, err)
	m2, _, err := c.Parse(ctx, "a.py", []byte("x = 1\n"))
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	m3, _, err := c.Parse(ctx, "a.py", []byte("x = 2\n"))
	require.NoError(t, err)
	assert.NotSame(t, m1, m3)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		cfg, err := validate.LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, validate.DefaultConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		ws := t.TempDir()
		content := "long_wire_usage_max: 4\ncache: false\ndisabled_rules: [code.unreachable]\n"
		require.NoError(t, os.WriteFile(filepath.Join(ws, validate.ConfigFile), []byte(content), 0o644))

		cfg, err := validate.LoadConfig(ws)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.LongWireUsageMax)
		assert.Equal(t, 50, cfg.LongWireLineSpanMin)
		assert.False(t, cfg.Cache)
		assert.False(t, cfg.Enabled("code.unreachable"))
	})

	t.Run("invalid value", func(t *testing.T) {
		ws := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(ws, validate.ConfigFile), []byte("long_wire_line_span_min: 0\n"), 0o644))
		_, err := validate.LoadConfig(ws)
		assert.ErrorIs(t, err, validate.ErrConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		ws := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(ws, validate.ConfigFile), []byte("cache: [\n"), 0o644))
		_, err := validate.LoadConfig(ws)
		assert.ErrorIs(t, err, validate.ErrConfig)
	})
}

func TestNewEnv_RegistryLoadFailureIsFatal(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, registry.NodesDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, registry.NodesDir, "bad.yaml"), []byte("nodes: [\n"), 0o644))

	_, err := validate.NewEnv(ws, validate.EnvOptions{Config: validate.DefaultConfig()})
	assert.ErrorIs(t, err, registry.ErrLoad)
}

func TestSourceContext_Detection(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		rel       string
		src       string
		scope     registry.Scope
		composite bool
	}{
		{"server graph", "graphs/a.py", "x = 1\n", registry.ScopeServer, false},
		{"client segment", "graphs/client/a.py", "x = 1\n", registry.ScopeClient, false},
		{"client docstring", "graphs/a.py", "\"\"\"\ngraph_type: client\n\"\"\"\n", registry.ScopeClient, false},
		{"composite dir", "composite_nodes/c.py", "x = 1\n", registry.ScopeServer, true},
		{"composite docstring", "graphs/c.py", "\"\"\"\nnode_type: composite\n\"\"\"\n", registry.ScopeServer, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.SourceContext(ctx, tt.rel, []byte(tt.src))
			require.NoError(t, err)
			assert.True(t, c.FileMode())
			assert.Equal(t, tt.scope, c.Scope)
			assert.Equal(t, tt.composite, c.IsComposite)
			assert.Equal(t, tt.scope, c.Registry.Scope())
		})
	}
}

func TestEnv_Rel(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, "graphs/a.py", env.Rel(filepath.Join(env.Workspace, "graphs", "a.py")))
}
