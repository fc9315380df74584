package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/openmusic-api/internal/authz"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/memstore"
	"github.com/iliyamo/openmusic-api/internal/model"
)

// fixture wires every service over one memstore and one miniredis.
type fixture struct {
	db        *memstore.DB
	mr        *miniredis.Miniredis
	cache     *cache.RedisCache
	queue     *memstore.ExportRecorder
	playlists *PlaylistService
	collabs   *CollaborationService
	songs     *SongService
	albums    *AlbumService
	auth      *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	c := cache.NewRedisCache(rdb, "")
	opts := CacheOptions{TTL: time.Minute}
	az := authz.NewEngine(memstore.Playlists{DB: db}, memstore.Collaborations{DB: db})
	q := &memstore.ExportRecorder{}

	return &fixture{
		db:    db,
		mr:    mr,
		cache: c,
		queue: q,
		playlists: NewPlaylistService(PlaylistDeps{
			Playlists:      memstore.Playlists{DB: db},
			Collaborations: memstore.Collaborations{DB: db},
			Songs:          memstore.Songs{DB: db},
			PlaylistSongs:  memstore.PlaylistSongs{DB: db},
			Activities:     memstore.Activities{DB: db},
			Users:          memstore.Users{DB: db},
			Authz:          az,
			Cache:          c,
			CacheOptions:   opts,
			Exports:        q,
		}),
		collabs: NewCollaborationService(memstore.Playlists{DB: db}, memstore.Collaborations{DB: db}, memstore.Users{DB: db}, az, c),
		songs:   NewSongService(memstore.Songs{DB: db}, memstore.Albums{DB: db}, memstore.PlaylistSongs{DB: db}, c, opts),
		albums:  NewAlbumService(memstore.Albums{DB: db}, memstore.Songs{DB: db}, memstore.Likes{DB: db}, &memstore.Covers{}, c, opts, "http://localhost:5000/"),
		auth: NewAuthService(memstore.Users{DB: db}, memstore.Tokens{DB: db}, AuthConfig{
			AccessSecret: "access", RefreshSecret: "refresh",
			AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4,
		}),
	}
}

func (f *fixture) user(t *testing.T, username string) string {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Fullname: username}
	if err := (memstore.Users{DB: f.db}).Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u.ID
}

func (f *fixture) song(t *testing.T, title, performer string) string {
	t.Helper()
	id, err := f.songs.Create(context.Background(), SongInput{Title: title, Year: 2000, Performer: performer, Genre: "Pop"})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// seed puts a placeholder under key so a later absence proves invalidation.
func (f *fixture) seed(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if err := f.mr.Set(k, "[]"); err != nil {
			t.Fatal(err)
		}
	}
}
