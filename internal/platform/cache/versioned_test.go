package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "dashboard", time.Minute)
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"calls": calls}, nil
	}

	key, err := c.BuildKey(ctx, "stats")
	require.NoError(t, err)
	require.Equal(t, "dashboard:stats:v1", key)

	var out map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 1, out["calls"])
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 1, out["calls"])

	require.NoError(t, c.Bump(ctx))
	key, err = c.BuildKey(ctx, "stats")
	require.NoError(t, err)
	require.Equal(t, "dashboard:stats:v2", key)
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 2, out["calls"])
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *Versioned
	var out []string
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return []string{"a"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, out)
	require.NoError(t, c.Bump(context.Background()))
}
