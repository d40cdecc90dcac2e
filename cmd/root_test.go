package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testNodesYAML = `nodes:
  - name: Add
    category: 运算节点
    inputs:
      - {name: a, type: 整数}
      - {name: b, type: 整数}
    outputs:
      - {name: 结果, type: 整数}
  - name: 实体创建时
    category: 事件节点
    outputs:
      - {name: 事件源实体, type: 实体}
`

func testSource(call string) string {
	return "class 主图:\n    def on_实体创建时(self, 事件源实体):\n        " + call + "\n"
}

// writeWorkspace creates a temp workspace holding files (slash-separated
// relative paths) and returns its root.
func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	ws := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(ws, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

// runRoot executes the root command with args and returns stdout, stderr and
// the command error.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()
	got := map[string]bool{}
	for _, sub := range root.Commands() {
		got[sub.Name()] = true
	}
	for _, name := range []string{"check", "selfcheck", "package", "cache", "watch", "init", "scan", "nodes"} {
		if !got[name] {
			t.Errorf("expected %q subcommand registered on root command", name)
		}
	}
}

func TestBuildCommandTree_AllCommandsHaveRunE(t *testing.T) {
	root := NewRootCmd()
	for _, sub := range root.Commands() {
		c := sub
		t.Run(c.Name(), func(t *testing.T) {
			if c.RunE == nil {
				t.Errorf("command %q has nil RunE; must wire RunE for error visibility", c.Name())
			}
		})
	}
}

func TestRootCmd_NoArgs_ShowsHelp(t *testing.T) {
	out, _, err := runRoot(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "graphcheck") {
		t.Errorf("expected help output, got %q", out)
	}
}

func TestRootCmd_BadLogFlags(t *testing.T) {
	ws := writeWorkspace(t, map[string]string{"nodes/math.yaml": testNodesYAML})
	for _, args := range [][]string{
		{"scan", "-w", ws, "--log-format", "xml"},
		{"scan", "-w", ws, "--log-level", "loud"},
		{"scan", "-w", ws, "--color", "sometimes"},
	} {
		if _, _, err := runRoot(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode string
		want bool
	}{
		{"always", true},
		{"never", false},
		{"auto", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := colorEnabled(tt.mode, &buf)
		if err != nil {
			t.Fatalf("colorEnabled(%q): %v", tt.mode, err)
		}
		if got != tt.want {
			t.Errorf("colorEnabled(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
