package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lyzr/tagservice/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(logger.Discard())
	defer c.Close()

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Delete(ctx, "k"))
	_, found, _ = c.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(logger.Discard())
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Second))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	c := NewMemoryCache(logger.Discard())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// Writes after close are dropped
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.Equal(t, 0, c.Stats()["entries"])
}
