package upstream

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ttlCache wraps a gocache.Cache with a hard capacity: once full, setting a
// new key evicts an arbitrary existing entry first. Entries expire after
// ttl regardless of capacity pressure.
type ttlCache struct {
	cache    *gocache.Cache
	capacity int
	ttl      time.Duration
}

func newTTLCache(capacity int, ttl time.Duration) *ttlCache {
	return &ttlCache{
		cache:    gocache.New(ttl, ttl),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (c *ttlCache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *ttlCache) Set(key string, value interface{}) {
	if _, found := c.cache.Get(key); !found {
		c.evictIfFull()
	}
	c.cache.Set(key, value, c.ttl)
}

func (c *ttlCache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *ttlCache) evictIfFull() {
	if c.cache.ItemCount() < c.capacity {
		return
	}
	for key := range c.cache.Items() {
		c.cache.Delete(key)
		return
	}
}
