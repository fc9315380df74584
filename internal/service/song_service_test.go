package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/model"
)

func TestSongList_CachedUntilCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.song(t, "Alpha", "One")

	got, cached, err := f.songs.List(ctx, model.SongQuery{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, got, 1)

	_, cached, err = f.songs.List(ctx, model.SongQuery{})
	require.NoError(t, err)
	assert.True(t, cached)

	f.song(t, "Beta", "Two")
	got, cached, err = f.songs.List(ctx, model.SongQuery{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, got, 2)
}

func TestSongSearch_SharesOneHashKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.song(t, "Alpha", "One")
	f.song(t, "Alphabet", "Two")
	f.song(t, "Gamma", "One")

	byTitle, cached, err := f.songs.List(ctx, model.SongQuery{Title: "alpha"})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, byTitle, 2)

	both, _, err := f.songs.List(ctx, model.SongQuery{Title: "alpha", Performer: "one"})
	require.NoError(t, err)
	assert.Len(t, both, 1)

	fields, err := f.mr.HKeys(cache.SongsParam)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"title=alpha", "performer=one&title=alpha"}, fields)

	_, cached, err = f.songs.List(ctx, model.SongQuery{Title: "alpha"})
	require.NoError(t, err)
	assert.True(t, cached)

	f.song(t, "Alpha Two", "Three")
	assert.False(t, f.mr.Exists(cache.SongsParam))
	byTitle, cached, err = f.songs.List(ctx, model.SongQuery{Title: "alpha"})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, byTitle, 3)
}

func TestSongGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.song(t, "Alpha", "One")

	got, cached, err := f.songs.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "Alpha", got.Title)

	_, cached, err = f.songs.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, cached)

	_, _, err = f.songs.Get(ctx, "song-missing")
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
	assert.False(t, f.mr.Exists(cache.Song("song-missing")))
}

func TestSongUpdate_InvalidatesContainingPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "alice")
	id := f.song(t, "Alpha", "One")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)
	require.NoError(t, f.playlists.AddSong(ctx, u1, p1, id))
	_, _, err = f.playlists.Songs(ctx, u1, p1)
	require.NoError(t, err)
	_, _, err = f.songs.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.songs.Update(ctx, id, SongInput{Title: "Renamed", Year: 2001, Performer: "One", Genre: "Rock"}))
	assert.False(t, f.mr.Exists(cache.Song(id)))
	assert.False(t, f.mr.Exists(cache.PlaylistSongs(p1)))

	detail, cached, err := f.playlists.Songs(ctx, u1, p1)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "Renamed", detail.Songs[0].Title)
}

func TestSongDelete_LeavesPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "alice")
	id := f.song(t, "Alpha", "One")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)
	require.NoError(t, f.playlists.AddSong(ctx, u1, p1, id))
	_, _, err = f.playlists.Songs(ctx, u1, p1)
	require.NoError(t, err)

	require.NoError(t, f.songs.Delete(ctx, id))
	detail, cached, err := f.playlists.Songs(ctx, u1, p1)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, detail.Songs)

	err = f.songs.Delete(ctx, id)
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestSongInput_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	neg := -1
	missing := "album-missing"

	cases := map[string]SongInput{
		"no title":         {Year: 2000, Performer: "A", Genre: "Pop"},
		"no performer":     {Title: "T", Year: 2000, Genre: "Pop"},
		"year too early":   {Title: "T", Year: 1800, Performer: "A", Genre: "Pop"},
		"negative runtime": {Title: "T", Year: 2000, Performer: "A", Genre: "Pop", Duration: &neg},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.songs.Create(ctx, in)
			assert.True(t, apperror.Is(err, apperror.ErrBadRequest))
		})
	}

	_, err := f.songs.Create(ctx, SongInput{Title: "T", Year: 2000, Performer: "A", Genre: "Pop", AlbumID: &missing})
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestSongWrite_EmptyAlbumIDRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := ""
	in := SongInput{Title: "Alpha", Year: 2000, Performer: "One", Genre: "Pop", AlbumID: &empty}

	_, err := f.songs.Create(ctx, in)
	assert.True(t, apperror.Is(err, apperror.ErrBadRequest))

	id := f.song(t, "Alpha", "One")
	err = f.songs.Update(ctx, id, in)
	assert.True(t, apperror.Is(err, apperror.ErrBadRequest))
}

func TestSongUpdate_NullClearsOptionalFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	albumID, err := f.albums.Create(ctx, AlbumInput{Name: "Parachutes", Year: 2000})
	require.NoError(t, err)
	duration := 266
	id, err := f.songs.Create(ctx, SongInput{
		Title: "Yellow", Year: 2000, Performer: "Coldplay", Genre: "Pop",
		Duration: &duration, AlbumID: &albumID,
	})
	require.NoError(t, err)

	require.NoError(t, f.songs.Update(ctx, id, SongInput{Title: "Yellow", Year: 2000, Performer: "Coldplay", Genre: "Pop"}))
	got, cached, err := f.songs.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Nil(t, got.Duration)
	assert.Nil(t, got.AlbumID)
}
