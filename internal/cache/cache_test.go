package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/model"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisCache(rdb, "test"), mr
}

type counter struct{ calls int }

func (c *counter) load(v []string) Loader[[]string] {
	return func(context.Context) ([]string, error) {
		c.calls++
		return v, nil
	}
}

func TestFetch_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	var n counter

	v, cached, err := Fetch(ctx, c, "songs", time.Minute, n.load([]string{"a", "b"}))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.True(t, mr.Exists("test:songs"))

	v, cached, err = Fetch(ctx, c, "songs", time.Minute, n.load([]string{"changed"}))
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.Equal(t, 1, n.calls)
}

func TestFetch_IdempotentWithoutWrites(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var n counter

	first, _, err := Fetch(ctx, c, "k", time.Minute, n.load([]string{"x"}))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, cached, err := Fetch(ctx, c, "k", time.Minute, n.load([]string{"y"}))
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, first, again)
	}
}

func TestFetch_LoaderNotFoundIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	load := func(context.Context) (int, error) { return 0, apperror.NotFound("Song not found") }

	_, cached, err := Fetch(context.Background(), c, "songs:x", time.Minute, load)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.False(t, cached)
	assert.False(t, mr.Exists("test:songs:x"))
}

func TestFetch_BackendFailureIsServerError(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	loaded := false
	load := func(context.Context) (int, error) { loaded = true; return 1, nil }

	_, _, err := Fetch(context.Background(), c, "k", time.Minute, load)
	assert.True(t, apperror.Is(err, apperror.ErrServer))
	assert.False(t, loaded)
}

func TestFetch_UndecodableEntryReloads(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("test:k", "not json"))
	var n counter

	v, cached, err := Fetch(context.Background(), c, "k", time.Minute, n.load([]string{"fresh"}))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"fresh"}, v)
}

func TestFetch_TTLApplied(t *testing.T) {
	c, mr := newTestCache(t)
	var n counter
	_, _, err := Fetch(context.Background(), c, "k", 30*time.Minute, n.load(nil))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL("test:k"))
}

func TestFetchField_SharesOneKey(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	var n counter

	f1 := SongsQueryField(model.SongQuery{Title: "life"})
	f2 := SongsQueryField(model.SongQuery{Performer: "coldplay"})
	_, _, err := FetchField(ctx, c, SongsParam, f1, time.Minute, n.load([]string{"1"}))
	require.NoError(t, err)
	_, _, err = FetchField(ctx, c, SongsParam, f2, time.Minute, n.load([]string{"2"}))
	require.NoError(t, err)

	v, cached, err := FetchField(ctx, c, SongsParam, f1, time.Minute, n.load([]string{"other"}))
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, []string{"1"}, v)
	assert.Equal(t, 2, n.calls)

	require.NoError(t, Invalidate(ctx, c, SongsParam))
	assert.False(t, mr.Exists("test:songs:Param"))
}

func TestInvalidate_ForcesReload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var n counter

	_, _, err := Fetch(ctx, c, UserPlaylists("user-a"), time.Minute, n.load([]string{"p1"}))
	require.NoError(t, err)
	require.NoError(t, Invalidate(ctx, c, UserPlaylists("user-a"), UserPlaylists("user-a"), ""))

	v, cached, err := Fetch(ctx, c, UserPlaylists("user-a"), time.Minute, n.load([]string{"p1", "p2"}))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"p1", "p2"}, v)
}

func TestInvalidate_BackendFailure(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	err := Invalidate(context.Background(), c, "k")
	assert.True(t, apperror.Is(err, apperror.ErrServer))
}

func TestRedisCache_ClearOnlyOwnPrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, mr.Set("other:a", "keep"))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
	assert.True(t, mr.Exists("other:a"))
}

func TestRedisCache_ClearRequiresPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	assert.Error(t, NewRedisCache(rdb, "").Clear(context.Background()))
}

func TestNoopAlwaysMisses(t *testing.T) {
	var n counter
	for i := 0; i < 2; i++ {
		_, cached, err := Fetch(context.Background(), Noop{}, "k", time.Minute, n.load(nil))
		require.NoError(t, err)
		assert.False(t, cached)
	}
	assert.Equal(t, 2, n.calls)
}

func TestKeyFamilies(t *testing.T) {
	assert.Equal(t, "user:u1:playlists", UserPlaylists("u1"))
	assert.Equal(t, "playlist:p1:songs", PlaylistSongs("p1"))
	assert.Equal(t, "songs:s1", Song("s1"))
	assert.Equal(t, "album:a1:likesCount", AlbumLikes("a1"))
	assert.Equal(t, "performer=b&title=a", SongsQueryField(model.SongQuery{Title: "a", Performer: "b"}))
}
