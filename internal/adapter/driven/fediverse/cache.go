package fediverse

import (
	"fmt"

	"github.com/gregjones/httpcache"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Compile-time interface satisfaction check.
var _ httpcache.Cache = (*LRUCache)(nil)

// LRUCache is an httpcache.Cache holding at most a fixed number of
// serialized responses. The least recently used entry is evicted first.
type LRUCache struct {
	entries *lru.Cache[string, []byte]
}

// NewLRUCache creates an LRUCache with room for maxEntries responses.
func NewLRUCache(maxEntries int) (*LRUCache, error) {
	entries, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}
	return &LRUCache{entries: entries}, nil
}

// Get returns the cached response bytes for key.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	return c.entries.Get(key)
}

// Set stores the response bytes for key.
func (c *LRUCache) Set(key string, resp []byte) {
	c.entries.Add(key, resp)
}

// Delete removes key from the cache.
func (c *LRUCache) Delete(key string) {
	c.entries.Remove(key)
}
