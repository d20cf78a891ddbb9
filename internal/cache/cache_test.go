package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Miss(t *testing.T) {
	c := New[[]string]()
	_, ok := c.Get("inbox", 0)
	assert.False(t, ok)
}

func TestSetGet_SameVersionHits(t *testing.T) {
	c := New[[]string]()
	c.Set("inbox", 3, []string{"1", "3"})

	got, ok := c.Get("inbox", 3)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "3"}, got)
}

func TestGet_AnyVersionMismatchMisses(t *testing.T) {
	c := New[int]()
	c.Set("today", 5, 42)

	_, ok := c.Get("today", 6)
	assert.False(t, ok)
	_, ok = c.Get("today", 4)
	assert.False(t, ok, "an older version must miss too")
}

func TestSet_Overwrites(t *testing.T) {
	c := New[int]()
	c.Set("pinned", 1, 10)
	c.Set("pinned", 2, 20)

	got, ok := c.Get("pinned", 2)
	require.True(t, ok)
	assert.Equal(t, 20, got)
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateAndClear(t *testing.T) {
	c := New[int]()
	c.Set("a", 1, 1)
	c.Set("b", 1, 2)
	assert.Equal(t, []string{"a", "b"}, c.Names())

	c.Invalidate("a")
	_, ok := c.Get("a", 1)
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
