package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/cache"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
)

func writeSource(t *testing.T, ws, rel, content string) string {
	t.Helper()
	path := filepath.Join(ws, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func warning() issue.Issue {
	return issue.Warnf(issue.CategoryCodeQuality, issue.CodeUnusedQueryOutput, "结果未被使用").
		InFile("graphs/a.py", "第3~3行").
		WithDetail(map[string]any{"name": "结果"})
}

func TestRoundTrip(t *testing.T) {
	ws := t.TempDir()
	path := writeSource(t, ws, "graphs/a.py", "class 图:\n    pass\n")

	f := cache.Load(ws)
	require.NoError(t, cache.Update(ws, path, f, "fp1", []issue.Issue{warning()}))
	require.NoError(t, cache.Save(ws, f))

	loaded := cache.Load(ws)
	assert.Equal(t, cache.Version, loaded.Version)
	assert.Equal(t, "fp1", loaded.RulesHash)
	require.Contains(t, loaded.Files, "graphs/a.py")

	got, ok := cache.TryGet(ws, path, loaded, "fp1")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, issue.CodeUnusedQueryOutput, got[0].Code)
	assert.Equal(t, issue.LevelWarning, got[0].Level)
	assert.Equal(t, "第3~3行", got[0].LineSpan)
	assert.Equal(t, "结果", got[0].Detail["name"])
}

func TestTryGet_Misses(t *testing.T) {
	ws := t.TempDir()
	path := writeSource(t, ws, "graphs/a.py", "x\n")

	t.Run("stored error is never reused", func(t *testing.T) {
		f := cache.New()
		errIssue := issue.Errorf(issue.CategoryCodeStyle, issue.CodeMissingRequiredInputs, "缺少输入")
		require.NoError(t, cache.Update(ws, path, f, "fp", []issue.Issue{warning(), errIssue}))
		_, ok := cache.TryGet(ws, path, f, "fp")
		assert.False(t, ok)
	})

	t.Run("fingerprint mismatch", func(t *testing.T) {
		f := cache.New()
		require.NoError(t, cache.Update(ws, path, f, "fp", nil))
		_, ok := cache.TryGet(ws, path, f, "other")
		assert.False(t, ok)
	})

	t.Run("file changed", func(t *testing.T) {
		f := cache.New()
		require.NoError(t, cache.Update(ws, path, f, "fp", nil))
		later := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(path, later, later))
		_, ok := cache.TryGet(ws, path, f, "fp")
		assert.False(t, ok)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, ok := cache.TryGet(ws, filepath.Join(ws, "graphs", "missing.py"), cache.New(), "")
		assert.False(t, ok)
	})

	t.Run("clean result hits", func(t *testing.T) {
		f := cache.New()
		require.NoError(t, cache.Update(ws, path, f, "fp", nil))
		got, ok := cache.TryGet(ws, path, f, "fp")
		assert.True(t, ok)
		assert.Empty(t, got)
	})
}

func TestUpdate_NewFingerprintDropsEntries(t *testing.T) {
	ws := t.TempDir()
	a := writeSource(t, ws, "graphs/a.py", "a\n")
	b := writeSource(t, ws, "graphs/b.py", "b\n")

	f := cache.New()
	require.NoError(t, cache.Update(ws, a, f, "old", nil))
	require.NoError(t, cache.Update(ws, b, f, "old", nil))
	assert.Equal(t, 2, f.Len())

	require.NoError(t, cache.Update(ws, a, f, "new", nil))
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, "new", f.RulesHash)
}

func TestLoad_MalformedIsEmpty(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, cache.Dir), 0o755))
	require.NoError(t, os.WriteFile(cache.Path(ws), []byte("{not json"), 0o644))

	f := cache.Load(ws)
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.RulesHash)
}

func TestClear(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, cache.Clear(ws))
	require.NoError(t, cache.Save(ws, cache.New()))
	require.FileExists(t, cache.Path(ws))
	require.NoError(t, cache.Clear(ws))
	assert.NoFileExists(t, cache.Path(ws))
}

func TestKey(t *testing.T) {
	ws := t.TempDir()
	assert.Equal(t, "graphs/a.py", cache.Key(ws, filepath.Join(ws, "graphs", "a.py")))
	outside := filepath.Join(filepath.Dir(ws), "elsewhere.py")
	assert.Equal(t, filepath.ToSlash(outside), cache.Key(ws, outside))
}
