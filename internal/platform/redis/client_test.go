package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokevault/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("empty URL disables redis", func(t *testing.T) {
		c, err := New(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("connects and reports health", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 2})
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })

		assert.NoError(t, c.Health(context.Background()))
		assert.Equal(t, "redis", c.Name())
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "://bad"})
		require.Error(t, err)
	})
}

func TestOptionsKeepDefaultsForZeroValues(t *testing.T) {
	opts, err := options(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 0, MinIdleConns: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Zero(t, opts.PoolSize)
	assert.Equal(t, 3, opts.MinIdleConns)
}
