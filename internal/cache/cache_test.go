package cache

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func put[V any](c *Cache[V], key string, v V) {
	c.SetIfCurrent(key, c.Version(), v)
}

func TestGetSetDelete(t *testing.T) {
	c, err := New[[]string](2, time.Minute)
	require.NoError(t, err)

	put(c, "C1", []string{"a"})
	got, ok := c.Get("C1")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got)

	c.Delete("C1")
	_, ok = c.Get("C1")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c, err := New[int](4, time.Second)
	require.NoError(t, err)
	now := time.Unix(100, 0)
	c.now = func() time.Time { return now }

	put(c, "k", 7)
	now = now.Add(500 * time.Millisecond)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.lru.Len())
}

func TestEviction(t *testing.T) {
	c, err := New[int](2, time.Minute)
	require.NoError(t, err)
	put(c, "a", 1)
	put(c, "b", 2)
	put(c, "c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.lru.Len())
}

func TestSetIfCurrentSkipsAfterDelete(t *testing.T) {
	c, err := New[int](2, time.Minute)
	require.NoError(t, err)

	v := c.Version()
	c.Delete("k")
	c.SetIfCurrent("k", v, 1)
	_, ok := c.Get("k")
	assert.False(t, ok)

	v = c.Version()
	c.SetIfCurrent("k", v, 2)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestDeleteOtherKeyKeepsVersion(t *testing.T) {
	c, err := New[int](4, time.Minute)
	require.NoError(t, err)

	v := c.Version()
	c.Delete("other")
	c.SetIfCurrent("k", v, 1)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestDeleteHistoryIsBounded(t *testing.T) {
	c, err := New[int](4, time.Minute)
	require.NoError(t, err)

	stale := c.Version()
	c.Delete("k")
	for i := 0; i < 1000; i++ {
		c.Delete(fmt.Sprintf("case-%d", i))
	}
	assert.LessOrEqual(t, c.deleted.Len(), 4)

	// The delete of "k" has been forgotten but must still win.
	c.SetIfCurrent("k", stale, 1)
	_, ok := c.Get("k")
	assert.False(t, ok)

	put(c, "k", 2)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestInvalidSize(t *testing.T) {
	_, err := New[int](0, time.Minute)
	assert.Error(t, err)
}
