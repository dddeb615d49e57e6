package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/logger"
)

func testConfig(mr *miniredis.Miniredis) *config.Config {
	return &config.Config{Redis: config.RedisConfig{
		Host:     mr.Host(),
		Port:     mr.Port(),
		PoolSize: 2,
	}}
}

func TestNewConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewConnection(testConfig(mr), logger.Discard())
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Health(context.Background()))
	require.NoError(t, c.GetClient().Set(context.Background(), "k", "v", 0).Err())
	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestHealth_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewConnection(testConfig(mr), logger.Discard())
	require.NoError(t, err)
	defer c.Close()

	mr.Close()
	assert.Error(t, c.Health(context.Background()))
}

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: "6380", DB: 2, PoolSize: 7})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
}
