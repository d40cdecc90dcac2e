package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestScanSourcesImpl(t *testing.T) {
	ws := writeWorkspace(t, map[string]string{
		"graphs/b.py":             "",
		"graphs/sub/a.py":         "",
		"graphs/notes.md":         "",
		"graphs/__pycache__/b.py": "",
		"graphs/.hidden/c.py":     "",
		"composite_nodes/c.py":    "",
		"elsewhere/d.py":          "",
	})

	t.Run("default roots", func(t *testing.T) {
		got, err := ScanSourcesImpl(context.Background(), ws, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{
			filepath.Join(ws, "composite_nodes", "c.py"),
			filepath.Join(ws, "graphs", "b.py"),
			filepath.Join(ws, "graphs", "sub", "a.py"),
		}
		if strings.Join(got, "\n") != strings.Join(want, "\n") {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("explicit targets deduplicated", func(t *testing.T) {
		got, err := ScanSourcesImpl(context.Background(), ws, []string{"elsewhere", "elsewhere/d.py"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || filepath.Base(got[0]) != "d.py" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("missing explicit target", func(t *testing.T) {
		if _, err := ScanSourcesImpl(context.Background(), ws, []string{"nope"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing default roots", func(t *testing.T) {
		got, err := ScanSourcesImpl(context.Background(), t.TempDir(), nil)
		if err != nil || len(got) != 0 {
			t.Errorf("got %v, %v; want empty", got, err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := ScanSourcesImpl(ctx, ws, nil); err == nil {
			t.Error("expected context error")
		}
	})
}

func TestScanCmd(t *testing.T) {
	ws := writeWorkspace(t, map[string]string{
		"graphs/a.py":          testSource("pass"),
		"graphs/client/ui.py":  testSource("pass"),
		"composite_nodes/c.py": "class 组合:\n    pass\n",
	})

	out, _, err := runRoot(t, "scan", "-w", ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"graphs/a.py\tserver\tgraph\n",
		"graphs/client/ui.py\tclient\tgraph\n",
		"composite_nodes/c.py\tserver\tcomposite\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = runRoot(t, "scan", "-w", ws, "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []SourceEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestNodesCmd(t *testing.T) {
	ws := writeWorkspace(t, map[string]string{"nodes/math.yaml": testNodesYAML})

	out, _, err := runRoot(t, "nodes", "-w", ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Add\t运算节点\t(a: 整数, b: 整数) -> (结果: 整数)\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "共 2 个节点 (server)") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	out, _, err = runRoot(t, "nodes", "-w", ws, "--category", "事件", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var defs []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "实体创建时" {
		t.Errorf("got %+v", defs)
	}
}
