package cache

import (
	"context"
	"testing"
	"time"

	"soundmap/model"
	"soundmap/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestResponseCache(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewResponseCache(client, time.Minute)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "snap-1", "/api/summary")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "snap-1", "/api/summary", []byte(`{"total_plays":1}`)))
	body, hit, err := c.Get(ctx, "snap-1", "/api/summary")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.JSONEq(t, `{"total_plays":1}`, string(body))

	// a new snapshot id never sees the old entry
	_, hit, err = c.Get(ctx, "snap-2", "/api/summary")
	require.NoError(t, err)
	assert.False(t, hit)

	mr.FastForward(2 * time.Minute)
	_, hit, _ = c.Get(ctx, "snap-1", "/api/summary")
	assert.False(t, hit, "entries expire after the ttl")
}

func TestResponseCacheSkipsEmptySnapshotID(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewResponseCache(client, time.Minute)

	require.NoError(t, c.Set(context.Background(), "", "/api/tracks", []byte("[]")))
	assert.Empty(t, mr.Keys())
}

func TestResponseCacheDisabled(t *testing.T) {
	c := NewResponseCache(nil, time.Minute)
	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(context.Background(), "s", "/p", []byte("x")))
	_, hit, err := c.Get(context.Background(), "s", "/p")
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestResponseCacheUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewResponseCache(client, time.Minute)
	mr.Close()

	_, hit, err := c.Get(context.Background(), "s", "/p")
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestSnapshotStore(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSnapshotStore(client)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	snap := model.EmptySnapshot()
	snap.User = &model.User{Username: "artist"}
	snap.Aggregate.Countries = []model.CountryStat{{Rank: 1, Name: "Japan", Code: "JP", Plays: 3}}
	snap.Meta = &model.SnapshotMeta{ID: "r1", GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.Equal(t, "redis", store.Name())
}

func TestCheckRedis(t *testing.T) {
	_, client := newTestRedis(t)
	assert.NoError(t, CheckRedis(context.Background(), client))
	assert.Error(t, CheckRedis(context.Background(), nil))
}
