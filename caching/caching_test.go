package caching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	_, ok := c.Get("card:base1-4")
	assert.False(t, ok)

	c.Set("card:base1-4", []byte(`{"data":{}}`))
	v, ok := c.Get("card:base1-4")
	assert.True(t, ok)
	assert.Equal(t, `{"data":{}}`, string(v))
	assert.Equal(t, 1, c.Len())
}

func TestCacheExpires(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	c.Set("k", []byte("v"))
	time.Sleep(40 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheDefaultTTL(t *testing.T) {
	c := NewCache(0)
	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	assert.True(t, ok)
}
