// Package caching wraps an in-process TTL cache for upstream API responses.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is an in-memory key/value store whose entries expire after a default TTL.
type Cache struct {
	memoryCache *cache.Cache
}

// NewCache returns a cache whose entries live for ttl. Expired entries are
// swept every ttl as well.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		memoryCache: cache.New(ttl, ttl),
	}
}

func (s *Cache) Get(key string) ([]byte, bool) {
	v, ok := s.memoryCache.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores value under key with the default TTL.
func (s *Cache) Set(key string, value []byte) {
	s.memoryCache.Set(key, value, cache.DefaultExpiration)
}

func (s *Cache) Len() int {
	return s.memoryCache.ItemCount()
}
