package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		DialTimeout:  time.Second,
		TimeoutRedis: time.Second,
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := []*models.ProductOption{
		{ID: 1, ProductName: "Netflix - 1M", Duration: 1, WCPrice: 10, RetailPrice: 15},
		{ID: 2, ProductName: "Spotify - 3M", Duration: 3, WCPrice: 20, RetailPrice: 30},
	}
	require.NoError(t, cache.Set(ctx, "products:options", expected, time.Minute))

	var actual []*models.ProductOption
	found, err := cache.Get(ctx, "products:options", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out []*models.ProductOption
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("bad", "not-json"))

	var out models.ProductOption
	found, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
