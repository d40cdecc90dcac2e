package registry

import "path/filepath"

type cacheKey struct {
	workspace string
	scope     Scope
}

// Cache memoizes registries per (workspace, scope). It is not safe for
// concurrent use; resolve every scope before fanning out.
type Cache struct {
	source  Source
	entries map[cacheKey]*Registry
}

// NewCache returns a cache reading definitions from src. A nil src means
// FileSource.
func NewCache(src Source) *Cache {
	if src == nil {
		src = FileSource{}
	}
	return &Cache{source: src, entries: make(map[cacheKey]*Registry)}
}

// Resolve returns the registry for workspace and scope, loading it on first
// request. Load failures are not cached.
func (c *Cache) Resolve(workspace string, scope Scope) (*Registry, error) {
	if scope != ScopeClient {
		scope = ScopeServer
	}
	if abs, err := filepath.Abs(workspace); err == nil {
		workspace = abs
	}
	key := cacheKey{workspace: workspace, scope: scope}
	if r, ok := c.entries[key]; ok {
		return r, nil
	}
	defs, err := c.source.Load(workspace)
	if err != nil {
		return nil, err
	}
	r, err := Build(defs, scope)
	if err != nil {
		return nil, err
	}
	c.entries[key] = r
	return r, nil
}

// Clear drops every memoized registry.
func (c *Cache) Clear() {
	c.entries = make(map[cacheKey]*Registry)
}

// Len returns the number of memoized registries.
func (c *Cache) Len() int { return len(c.entries) }
