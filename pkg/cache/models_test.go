package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
)

func cacheWithRedis(t *testing.T) (*ModelCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	c := NewModelCache(config.RedisCacheConfig{
		Host: mr.Host(),
		Port: port,
		TTL:  time.Minute,
	}, slog.Default())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestModelCache_LoadsOnceThenServesFromCache(t *testing.T) {
	c, _ := cacheWithRedis(t)
	loads := 0
	loader := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{"gpt-4o", "gpt-4o-mini"}, nil
	}

	first, err := c.Models(context.Background(), loader)
	require.NoError(t, err)
	second, err := c.Models(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)
}

func TestModelCache_ExpiryReloads(t *testing.T) {
	c, mr := cacheWithRedis(t)
	loads := 0
	loader := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{"gpt-4o"}, nil
	}

	_, err := c.Models(context.Background(), loader)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = c.Models(context.Background(), loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestModelCache_Invalidate(t *testing.T) {
	c, _ := cacheWithRedis(t)
	loads := 0
	loader := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{"gpt-4o"}, nil
	}

	_, err := c.Models(context.Background(), loader)
	require.NoError(t, err)
	c.Invalidate(context.Background())
	_, err = c.Models(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, 2, loads)
}

func TestModelCache_DisabledPassesThrough(t *testing.T) {
	c := NewModelCache(config.RedisCacheConfig{}, slog.Default())
	loads := 0
	loader := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{"gpt-4o"}, nil
	}

	_, err := c.Models(context.Background(), loader)
	require.NoError(t, err)
	_, err = c.Models(context.Background(), loader)
	require.NoError(t, err)

	assert.Equal(t, 2, loads, "no redis host means every lookup loads")
}

func TestModelCache_LoaderErrorPropagates(t *testing.T) {
	c, _ := cacheWithRedis(t)
	wantErr := errors.New("endpoint unreachable")

	_, err := c.Models(context.Background(), func(ctx context.Context) ([]string, error) {
		return nil, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

func TestModelCache_CorruptEntryIsAMiss(t *testing.T) {
	c, mr := cacheWithRedis(t)
	require.NoError(t, mr.Set(modelsKey, "not json"))

	models, err := c.Models(context.Background(), func(ctx context.Context) ([]string, error) {
		return []string{"gpt-4o"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, models)
}
