// Package conformance_test runs the graphcheck binary against the fixture
// workspaces under testdata/.
//
// TestMain builds the binary once into a temporary directory before any test
// runs, then removes the directory on exit. Each fixture directory holds a
// workspace/ tree and a case.yaml describing the invocation and its expected
// outcome.
package conformance_test

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// binary is the absolute path to the compiled graphcheck binary, set by TestMain.
var binary string

const fixturesRoot = "testdata"

func TestMain(m *testing.M) {
	repoRoot, err := filepath.Abs("..")
	if err != nil {
		fmt.Fprintf(os.Stderr, "filepath.Abs: %v\n", err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "conformance-graphcheck-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "os.MkdirTemp: %v\n", err)
		os.Exit(1)
	}

	binary = filepath.Join(tmpDir, "graphcheck")
	build := exec.Command("go", "build", "-o", binary, ".")
	build.Dir = repoRoot
	if out, err := build.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "go build failed: %v\n%s\n", err, out)
		os.RemoveAll(tmpDir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// fixtureCase is the decoded case.yaml of one fixture. "{ws}" in Args is
// replaced with the path of the copied workspace.
type fixtureCase struct {
	Args           []string `yaml:"args"`
	ExitCode       int      `yaml:"exit_code"`
	Codes          []string `yaml:"codes"`
	StdoutContains []string `yaml:"stdout_contains"`
}

// reportIssue is the subset of a JSON report issue the runner compares.
type reportIssue struct {
	Code  string `json:"code"`
	Level string `json:"level"`
}

type reportDocument struct {
	Issues []reportIssue `json:"issues"`
}

func TestConformance_Fixtures(t *testing.T) {
	entries, err := os.ReadDir(fixturesRoot)
	require.NoError(t, err)

	ran := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(fixturesRoot, entry.Name())
		t.Run(entry.Name(), func(t *testing.T) {
			runFixture(t, dir)
		})
		ran++
	}
	if ran == 0 {
		t.Fatal("no fixtures found")
	}
}

func runFixture(t *testing.T, dir string) {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join(dir, "case.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		t.Skipf("fixture %s has no case.yaml", dir)
	}
	require.NoError(t, err)
	var c fixtureCase
	require.NoError(t, yaml.Unmarshal(raw, &c))

	// Copy the workspace so cache files never land in testdata.
	ws := t.TempDir()
	require.NoError(t, copyTree(filepath.Join(dir, "workspace"), ws))

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{ws}", ws)
	}

	cmd := exec.Command(binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else {
		require.NoError(t, runErr)
	}
	assert.Equal(t, c.ExitCode, exitCode, "exit code\nstdout: %s\nstderr: %s", stdout.String(), stderr.String())

	for _, want := range c.StdoutContains {
		assert.Contains(t, stdout.String(), want)
	}

	if c.Codes != nil {
		got := issueCodes(t, stdout.Bytes())
		want := slices.Clone(c.Codes)
		slices.Sort(want)
		assert.Equal(t, want, got, "issue codes")
	}
}

// issueCodes decodes a single JSON report or an array of reports and returns
// the sorted codes of every issue.
func issueCodes(t *testing.T, out []byte) []string {
	t.Helper()
	var docs []reportDocument
	trimmed := bytes.TrimSpace(out)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		require.NoError(t, json.Unmarshal(trimmed, &docs), "stdout: %s", out)
	} else {
		var doc reportDocument
		require.NoError(t, json.Unmarshal(trimmed, &doc), "stdout: %s", out)
		docs = append(docs, doc)
	}
	codes := []string{}
	for _, d := range docs {
		for _, is := range d.Issues {
			codes = append(codes, is.Code)
		}
	}
	slices.Sort(codes)
	return codes
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
