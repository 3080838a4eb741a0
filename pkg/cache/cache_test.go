package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySetGet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Set(ctx, "k", "v2", 0))
	got, _ = c.Get(ctx, "k")
	assert.Equal(t, "v2", got)
}

func TestInMemoryDelete(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	// deleting a missing key is not an error
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestInMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()
	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))

	_, ok := c.Get(ctx, "k")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry must expire after its ttl")
}
