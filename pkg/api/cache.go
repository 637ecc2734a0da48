package api

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 32
)

// responseCache keeps raw response bodies by endpoint. A non-positive TTL
// disables caching.
type responseCache struct {
	lru *expirable.LRU[string, []byte]
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		return &responseCache{}
	}
	return &responseCache{lru: expirable.NewLRU[string, []byte](defaultCacheSize, nil, ttl)}
}

func (c *responseCache) Get(key string) ([]byte, bool) {
	if c.lru == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *responseCache) Add(key string, data []byte) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, data)
}

func (c *responseCache) Remove(key string) {
	if c.lru == nil {
		return
	}
	c.lru.Remove(key)
}

func (c *responseCache) Purge() {
	if c.lru == nil {
		return
	}
	c.lru.Purge()
}
