package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTL[int](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTL[string](10 * time.Millisecond)
	c.Set("k", "v")

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
