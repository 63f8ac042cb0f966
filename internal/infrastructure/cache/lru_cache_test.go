package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/backoffice-api/internal/infrastructure/cache"
)

func TestLRU_SetGetInvalidate(t *testing.T) {
	c := cache.NewLRU(4, time.Minute)

	c.Set("stocks:all", []string{"a"})
	v, ok := c.Get("stocks:all")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, v)

	c.Invalidate("stocks:all", "no-existe")
	_, ok = c.Get("stocks:all")
	assert.False(t, ok)
}

func TestLRU_Capacidad(t *testing.T) {
	c := cache.NewLRU(2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "se desaloja la entrada menos usada")
}

func TestLRU_Expira(t *testing.T) {
	c := cache.NewLRU(2, 20*time.Millisecond)
	c.Set("a", 1)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
