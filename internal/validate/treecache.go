package validate

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
)

// TreeCache memoizes parsed modules by path and content hash, so every rule of
// one run shares a single parse. It is safe for concurrent use.
type TreeCache struct {
	mu      sync.Mutex
	entries map[string]treeEntry
}

type treeEntry struct {
	sum   uint64
	mod   *graphcode.Module
	diags []graphcode.Diagnostic
}

// NewTreeCache returns an empty cache.
func NewTreeCache() *TreeCache {
	return &TreeCache{entries: make(map[string]treeEntry)}
}

// Parse returns the module for src, parsing it only when path has not been
// seen with identical content.
func (c *TreeCache) Parse(ctx context.Context, path string, src []byte) (*graphcode.Module, []graphcode.Diagnostic, error) {
	sum := xxhash.Sum64(src)
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if ok && e.sum == sum {
		return e.mod, e.diags, nil
	}

	mod, diags, err := graphcode.Parse(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	c.mu.Lock()
	c.entries[path] = treeEntry{sum: sum, mod: mod, diags: diags}
	c.mu.Unlock()
	return mod, diags, nil
}

// Clear drops every cached tree.
func (c *TreeCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]treeEntry)
	c.mu.Unlock()
}

// Len returns the number of cached trees.
func (c *TreeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
