package indexer

import (
	"strings"
	"sync"
)

// hashCache remembers the content hash last indexed per (namespace, file),
// so resubmitting an unchanged tree skips the embedding round trips. It
// lives in process memory only; a fresh process re-indexes everything and
// the idempotent upsert absorbs the repeats.
type hashCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newHashCache() *hashCache {
	return &hashCache{m: make(map[string]string)}
}

func cacheKey(namespace, relPath string) string {
	return namespace + "\x00" + relPath
}

func (c *hashCache) Unchanged(namespace, relPath, hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[cacheKey(namespace, relPath)] == hash
}

func (c *hashCache) Record(namespace, relPath, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[cacheKey(namespace, relPath)] = hash
}

func (c *hashCache) Forget(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := namespace + "\x00"
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
}
