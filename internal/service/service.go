// Package service holds the resource services.  Reads of aggregate views go
// through the cache with cache.Fetch; every write invalidates the keys whose
// contents it can change, after the write has been committed.
package service

import (
	"context"
	"io"
	"time"

	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/queue"
)

// Store ports.  The repository package implements all of them against MySQL.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetManyByIDs(ctx context.Context, ids []string) ([]model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type TokenStore interface {
	Store(ctx context.Context, userID, tokenHash string) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	Delete(ctx context.Context, tokenHash string) error
}

type AlbumStore interface {
	Create(ctx context.Context, a *model.Album) error
	GetByID(ctx context.Context, id string) (*model.Album, error)
	Update(ctx context.Context, id, name string, year int) error
	Delete(ctx context.Context, id string) error
	SetCover(ctx context.Context, id, coverURL string) error
}

type SongStore interface {
	Create(ctx context.Context, s *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	Replace(ctx context.Context, s *model.Song) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.SongSummary, error)
	Search(ctx context.Context, q model.SongQuery) ([]model.SongSummary, error)
	ListByAlbum(ctx context.Context, albumID string) ([]model.SongSummary, error)
	ListByPlaylist(ctx context.Context, playlistID string) ([]model.SongSummary, error)
}

type PlaylistStore interface {
	Create(ctx context.Context, p *model.Playlist) error
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Playlist, error)
	Delete(ctx context.Context, id string) (*model.Playlist, error)
}

type CollaborationStore interface {
	Add(ctx context.Context, playlistID, userID string) (*model.Collaboration, bool, error)
	Remove(ctx context.Context, playlistID, userID string) (*model.Collaboration, error)
	UserIDsByPlaylist(ctx context.Context, playlistID string) ([]string, error)
	PlaylistIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type PlaylistSongStore interface {
	Add(ctx context.Context, playlistID, songID string) (*model.PlaylistSong, error)
	Remove(ctx context.Context, playlistID, songID string) error
	Exists(ctx context.Context, playlistID, songID string) (bool, error)
	PlaylistIDsBySong(ctx context.Context, songID string) ([]string, error)
}

type ActivityStore interface {
	Append(ctx context.Context, a *model.Activity) error
	ListByPlaylist(ctx context.Context, playlistID string) ([]model.ActivityView, error)
}

type AlbumLikeStore interface {
	Exists(ctx context.Context, userID, albumID string) (bool, error)
	Add(ctx context.Context, userID, albumID string) error
	Remove(ctx context.Context, userID, albumID string) error
	Count(ctx context.Context, albumID string) (int, error)
}

// ExportQueue enqueues playlist export requests.
type ExportQueue interface {
	PublishExport(ctx context.Context, ev queue.PlaylistExportRequested) error
}

// CoverStorage persists album cover images and returns the stored file name.
type CoverStorage interface {
	Save(ctx context.Context, albumID, contentType string, r io.Reader) (string, error)
}

// CacheOptions configures how long read-through entries live.
type CacheOptions struct {
	TTL time.Duration
}

func (o CacheOptions) ttl() time.Duration {
	if o.TTL <= 0 {
		return 30 * time.Minute
	}
	return o.TTL
}
