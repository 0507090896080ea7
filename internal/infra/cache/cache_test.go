package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazenda-socios/portal-bfa-go/internal/infra/cache"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"
)

var _ port.Cache[string] = (*cache.InMemory[string])(nil)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("sid-1", "user-1")
	val, ok := c.Get("sid-1")
	require.True(t, ok)
	assert.Equal(t, "user-1", val)
	assert.Equal(t, 1, c.Len())
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("sid-1", "user-1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("sid-1")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_SetSlidesExpiry(t *testing.T) {
	c := cache.New[string](80 * time.Millisecond)

	c.Set("sid-1", "user-1")
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		_, ok := c.Get("sid-1")
		require.True(t, ok, "touch %d", i)
		c.Set("sid-1", "user-1")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("sid-1", "user-1")
	c.Delete("sid-1")

	_, ok := c.Get("sid-1")
	assert.False(t, ok)
}
