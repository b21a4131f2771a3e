// Package assets resolves dataset references to files and caches their bytes.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrOutsideRoot reports a relative reference that escapes the data root.
var ErrOutsideRoot = errors.New("path escapes data root")

// Resolver maps a dataset reference to a filesystem path.
type Resolver interface {
	Resolve(ref string) (string, error)
}

// DirResolver resolves references against a root directory. Absolute
// references are used as-is.
type DirResolver struct {
	Root string
}

// Resolve implements Resolver.
func (d DirResolver) Resolve(ref string) (string, error) {
	ref = filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/"))
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	p := filepath.Join(d.Root, ref)
	rel, err := filepath.Rel(d.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, ref)
	}
	return p, nil
}

// Manager reads dataset files through a Resolver and caches them by resolved
// path.
type Manager struct {
	resolver Resolver
	cache    *Cache
}

// NewManager creates a manager over r.
func NewManager(r Resolver) *Manager {
	return &Manager{
		resolver: r,
		cache:    NewCache(),
	}
}

// Path resolves ref without reading it.
func (m *Manager) Path(ref string) (string, error) {
	return m.resolver.Resolve(ref)
}

// Load returns the contents of ref, reading the file on a cache miss.
func (m *Manager) Load(ref string) ([]byte, error) {
	path, err := m.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", ref, err)
	}
	m.cache.Set(path, data)
	return data, nil
}

// Invalidate drops a resolved path from the cache.
func (m *Manager) Invalidate(path string) {
	m.cache.Delete(filepath.Clean(path))
}

// Cache returns the underlying cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close empties the cache.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is an in-memory map of file contents.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes one item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
