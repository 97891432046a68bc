package localization

import "sync"

// Cache avoids redundant AI calls for the same (derivative, language) pair
// within a batch. It is an injected collaborator, not a package global, so it
// can be swapped for a shared cache or disabled in tests. A miss is always
// safe: the worst case is a wasted transformation call, never a wrong record,
// because persistence is keyed by (derivative, language).
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

type MemoryCache struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *MemoryCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

// NopCache disables caching.
type NopCache struct{}

func (NopCache) Get(string) (string, bool) { return "", false }
func (NopCache) Set(string, string)        {}
