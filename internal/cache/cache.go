// Package cache persists per-file validation results between runs.
//
// A workspace has one cache file. An entry is reused only while the file's
// modification time and size are unchanged, the rules fingerprint matches and
// no stored issue is an error. A fingerprint change discards every entry.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
)

// Location of the cache file inside a workspace.
const (
	Dir      = ".graphcheck"
	FileName = "validation_cache.json"
)

// Version is the cache file format version.
const Version = 1

// Meta is the file state an entry was computed from.
type Meta struct {
	MTime float64 `json:"mtime"`
	Size  int64   `json:"size"`
}

// Entry is the stored result of one file.
type Entry struct {
	Meta   Meta         `json:"meta"`
	Issues []issue.Dict `json:"issues"`
}

// File is the in-memory form of a workspace cache. It is safe for concurrent
// use.
type File struct {
	Version   int              `json:"version"`
	RulesHash string           `json:"rules_hash"`
	Files     map[string]Entry `json:"files"`

	mu sync.Mutex
}

// New returns an empty cache.
func New() *File {
	return &File{Version: Version, Files: map[string]Entry{}}
}

// Path returns the cache file path of workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, Dir, FileName)
}

// Load reads the cache of workspace. A missing, unreadable or malformed cache
// file loads as an empty cache.
func Load(workspace string) *File {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		return New()
	}
	f := New()
	if err := json.Unmarshal(data, f); err != nil {
		return New()
	}
	if f.Files == nil {
		f.Files = map[string]Entry{}
	}
	return f
}

// Len returns the number of stored entries.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Files)
}

// TryGet returns the stored issues of path when the entry is still valid.
func TryGet(workspace, path string, f *File, fingerprint string) ([]issue.Issue, bool) {
	meta, err := stat(path)
	if err != nil {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RulesHash != fingerprint {
		return nil, false
	}
	e, ok := f.Files[Key(workspace, path)]
	if !ok || e.Meta != meta {
		return nil, false
	}
	issues := issue.FromDicts(e.Issues)
	if issue.HasErrors(issues) {
		return nil, false
	}
	return issues, true
}

// Update stores the result of path computed under fingerprint. Entries
// written under another fingerprint are dropped first.
func Update(workspace, path string, f *File, fingerprint string, issues []issue.Issue) error {
	meta, err := stat(path)
	if err != nil {
		return fmt.Errorf("cache: stat %s: %w", path, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RulesHash != fingerprint || f.Files == nil {
		f.RulesHash = fingerprint
		f.Files = map[string]Entry{}
	}
	f.Files[Key(workspace, path)] = Entry{Meta: meta, Issues: issue.ToDicts(issues)}
	return nil
}

// Save writes f to the cache file of workspace, replacing it atomically.
func Save(workspace string, f *File) error {
	f.mu.Lock()
	f.Version = Version
	data, err := json.MarshalIndent(f, "", "  ")
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	path := Path(workspace)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: writing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: closing temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: renaming temp file: %w", err)
	}
	return nil
}

// Clear removes the cache file of workspace. A missing file is not an error.
func Clear(workspace string) error {
	err := os.Remove(Path(workspace))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("cache: clear: %w", err)
}

// Key returns the entry key of path: its workspace-relative slash path, or
// the cleaned absolute path when it lies outside the workspace.
func Key(workspace, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	ws, err := filepath.Abs(workspace)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(ws, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func stat(path string) (Meta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Meta{}, err
	}
	return Meta{
		MTime: float64(info.ModTime().UnixNano()) / 1e9,
		Size:  info.Size(),
	}, nil
}
