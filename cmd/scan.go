package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// defaultSourceRoots are the workspace directories holding graph sources.
var defaultSourceRoots = []string{validate.GraphSourceDir, validate.CompositeDir}

// resolveTarget maps a command-line path to a filesystem path. Paths that do
// not exist as given are taken relative to the workspace.
func resolveTarget(workspace, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	return filepath.Join(workspace, arg)
}

// ScanSourcesImpl collects every .py file under targets, which may be files or
// directories. With no targets it walks the default source roots of
// workspace, skipping roots that do not exist. The result is sorted and
// unique. It is an Impl function: it performs OS filesystem operations.
func ScanSourcesImpl(ctx context.Context, workspace string, targets []string) ([]string, error) {
	explicit := len(targets) > 0
	roots := make([]string, 0, len(targets))
	for _, t := range targets {
		roots = append(roots, resolveTarget(workspace, t))
	}
	if !explicit {
		for _, r := range defaultSourceRoots {
			roots = append(roots, filepath.Join(workspace, r))
		}
	}

	seen := map[string]bool{}
	var files []string
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			if !explicit && os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "__pycache__" || (path != root && strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".py" || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// SourceEntry describes one discovered graph source.
type SourceEntry struct {
	Path      string `json:"path"`
	Scope     string `json:"scope"`
	Composite bool   `json:"composite"`
	Error     string `json:"error,omitempty"`
}

func describeSource(ctx context.Context, workspace, path string) SourceEntry {
	rel := relPath(workspace, path)
	entry := SourceEntry{Path: rel}
	src, err := os.ReadFile(path)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	mod, _, err := graphcode.Parse(ctx, src)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.Scope = string(validate.DetectScope(rel, mod))
	entry.Composite = validate.DetectComposite(rel, mod)
	return entry
}

// relPath renders path relative to workspace with forward slashes when it
// lies inside it.
func relPath(workspace, path string) string {
	absWS, err1 := filepath.Abs(workspace)
	absPath, err2 := filepath.Abs(path)
	if err1 == nil && err2 == nil {
		if rel, err := filepath.Rel(absWS, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// NewScanCmd creates the scan subcommand, which lists graph sources with
// their detected scope.
func NewScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "scan [path...]",
		Short:        "List graph source files and their detected scope",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadRunOptions(cmd)
			if err != nil {
				return err
			}
			defer opts.finish(cmd)

			files, err := ScanSourcesImpl(cmd.Context(), opts.workspace, args)
			if err != nil {
				return err
			}
			entries := make([]SourceEntry, 0, len(files))
			for _, f := range files {
				entries = append(entries, describeSource(cmd.Context(), opts.workspace, f))
			}

			if opts.json {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
			}
			for _, e := range entries {
				kind := "graph"
				if e.Composite {
					kind = "composite"
				}
				if e.Error != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\terror\t%s\n", displayPath(e.Path), e.Error)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", displayPath(e.Path), e.Scope, kind)
			}
			return nil
		},
	}
}
