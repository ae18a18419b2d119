package wiki

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"fujirock/internal/core"
)

// Cache stores page summaries by language and title.
type Cache interface {
	Get(key string) (*core.WikiSummary, bool)
	Add(key string, summary *core.WikiSummary)
	Invalidate(key string)
	Purge()
}

// LRUCache is a size-bounded summary cache whose entries expire after a TTL.
type LRUCache struct {
	lru *expirable.LRU[string, *core.WikiSummary]
}

// NewLRUCache creates a cache holding at most size entries for ttl each.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = core.DefaultWikiCacheSize
	}
	return &LRUCache{lru: expirable.NewLRU[string, *core.WikiSummary](size, nil, ttl)}
}

func (c *LRUCache) Get(key string) (*core.WikiSummary, bool) {
	return c.lru.Get(key)
}

func (c *LRUCache) Add(key string, summary *core.WikiSummary) {
	c.lru.Add(key, summary)
}

func (c *LRUCache) Invalidate(key string) {
	c.lru.Remove(key)
}

func (c *LRUCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}

func cacheKey(lang, title string) string {
	return lang + ":" + title
}
