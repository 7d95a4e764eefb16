package profitability

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), client
}

func TestBuildKeyCarriesVersion(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	month := mustMonth(t, "2024-03")

	key, err := cache.BuildKey(ctx, keySummary("ana@example.com", "", month))
	require.NoError(t, err)
	assert.Equal(t, "profitability:summary:ana@example.com:-:2024-03:1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, keyTrend("ana@example.com", "p1", month, 6))
	require.NoError(t, err)
	assert.Equal(t, "profitability:trend:ana@example.com:p1:2024-03:6:2", key)
}

func TestNilCacheRunsLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)

	var out []TrendPoint
	err = cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return []TrendPoint{{Month: "2024-03", NetProfit: 12}}, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 12, out[0].NetProfit, 1e-9)
	assert.NoError(t, cache.Bump(ctx))
	assert.NoError(t, cache.ListenForInvalidation(ctx, ""))
}

func TestFetchJSONStoresAndReuses(t *testing.T) {
	cache, client := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return Split{Owner: 70, Manager: 30}, nil
	}

	var first, second Split
	require.NoError(t, cache.FetchJSON(ctx, "k", &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, "k", &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	ttl, err := client.TTL(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	cache, client := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var out Split
	err := cache.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), client.Exists(ctx, "k").Val())
	assert.Error(t, cache.FetchJSON(ctx, "k", &out, nil))
}

func TestListenForInvalidationFollowsNewerVersions(t *testing.T) {
	cache, client := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := cache.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.ListenForInvalidation(ctx, ""))

	require.NoError(t, client.Publish(ctx, BumpChannel, "7").Err())
	assert.Eventually(t, func() bool {
		ver, err := cache.Version(ctx)
		return err == nil && ver == 7
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Publish(ctx, BumpChannel, "3").Err())
	require.NoError(t, client.Publish(ctx, BumpChannel, "garbage").Err())
	assert.Eventually(t, func() bool {
		ver, err := cache.Version(ctx)
		return err == nil && ver == 8
	}, time.Second, 10*time.Millisecond)
}
