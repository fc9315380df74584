package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

// SongInput is the payload for creating or replacing a song.
type SongInput struct {
	Title     string  `json:"title"`
	Year      int     `json:"year"`
	Performer string  `json:"performer"`
	Genre     string  `json:"genre"`
	Duration  *int    `json:"duration"`
	AlbumID   *string `json:"albumId"`
}

func (in SongInput) validate() error {
	if err := firstErr(
		required("title", in.Title),
		required("performer", in.Performer),
		required("genre", in.Genre),
		releaseYear(in.Year),
	); err != nil {
		return err
	}
	if in.Duration != nil && *in.Duration < 0 {
		return apperror.BadRequest("duration must not be negative")
	}
	return nil
}

// SongService owns the song catalog.
type SongService struct {
	songs         SongStore
	albums        AlbumStore
	playlistSongs PlaylistSongStore
	cache         cache.Cache
	ttl           time.Duration
}

func NewSongService(songs SongStore, albums AlbumStore, playlistSongs PlaylistSongStore, c cache.Cache, opts CacheOptions) *SongService {
	return &SongService{songs: songs, albums: albums, playlistSongs: playlistSongs, cache: c, ttl: opts.ttl()}
}

// Create adds a song and returns its id.
func (s *SongService) Create(ctx context.Context, in SongInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if err := s.checkAlbum(ctx, in.AlbumID); err != nil {
		return "", err
	}
	song := &model.Song{
		Title: in.Title, Year: in.Year, Performer: in.Performer, Genre: in.Genre,
		Duration: in.Duration, AlbumID: in.AlbumID,
	}
	if err := s.songs.Create(ctx, song); err != nil {
		return "", apperror.Server("create song", err)
	}
	if err := cache.Invalidate(ctx, s.cache, cache.Songs, cache.SongsParam); err != nil {
		return "", err
	}
	return song.ID, nil
}

// Get returns one song.
func (s *SongService) Get(ctx context.Context, id string) (*model.Song, bool, error) {
	return cache.Fetch(ctx, s.cache, cache.Song(id), s.ttl, func(ctx context.Context) (*model.Song, error) {
		song, err := s.songs.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrSongNotFound) {
				return nil, apperror.Notfoundf("Song with id %s not found", id)
			}
			return nil, apperror.Server("load song", err)
		}
		return song, nil
	})
}

// List returns all songs, or those matching q when it filters.
func (s *SongService) List(ctx context.Context, q model.SongQuery) ([]model.SongSummary, bool, error) {
	if q.IsZero() {
		return cache.Fetch(ctx, s.cache, cache.Songs, s.ttl, func(ctx context.Context) ([]model.SongSummary, error) {
			songs, err := s.songs.List(ctx)
			if err != nil {
				return nil, apperror.Server("list songs", err)
			}
			return songs, nil
		})
	}
	return cache.FetchField(ctx, s.cache, cache.SongsParam, cache.SongsQueryField(q), s.ttl, func(ctx context.Context) ([]model.SongSummary, error) {
		songs, err := s.songs.Search(ctx, q)
		if err != nil {
			return nil, apperror.Server("search songs", err)
		}
		return songs, nil
	})
}

// Update replaces every field of a song.  A nil Duration or AlbumID clears
// the stored value.
func (s *SongService) Update(ctx context.Context, id string, in SongInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if err := s.checkAlbum(ctx, in.AlbumID); err != nil {
		return err
	}
	affected, err := s.playlistKeys(ctx, id)
	if err != nil {
		return err
	}
	song := &model.Song{
		ID: id, Title: in.Title, Year: in.Year, Performer: in.Performer, Genre: in.Genre,
		Duration: in.Duration, AlbumID: in.AlbumID,
	}
	if err := s.songs.Replace(ctx, song); err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			return apperror.Notfoundf("Song with id %s not found", id)
		}
		return apperror.Server("update song", err)
	}
	return s.invalidate(ctx, id, affected...)
}

// Delete removes a song.  It also leaves every playlist containing it.
func (s *SongService) Delete(ctx context.Context, id string) error {
	affected, err := s.playlistKeys(ctx, id)
	if err != nil {
		return err
	}
	if err := s.songs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			return apperror.Notfoundf("Song with id %s not found", id)
		}
		return apperror.Server("delete song", err)
	}
	return s.invalidate(ctx, id, affected...)
}

// playlistKeys returns the song-list keys of every playlist containing the
// song.  It runs before the write, since a delete cascades the rows away.
func (s *SongService) playlistKeys(ctx context.Context, songID string) ([]string, error) {
	ids, err := s.playlistSongs.PlaylistIDsBySong(ctx, songID)
	if err != nil {
		return nil, apperror.Server("load playlists of song", err)
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.PlaylistSongs(id))
	}
	return keys, nil
}

// invalidate drops the song's own key, both listing families and the given
// playlist keys.
func (s *SongService) invalidate(ctx context.Context, id string, playlistKeys ...string) error {
	keys := append([]string{cache.Song(id), cache.Songs, cache.SongsParam}, playlistKeys...)
	return cache.Invalidate(ctx, s.cache, keys...)
}

func (s *SongService) checkAlbum(ctx context.Context, albumID *string) error {
	if albumID == nil {
		return nil
	}
	if *albumID == "" {
		return apperror.BadRequest("albumId must not be empty")
	}
	if _, err := s.albums.GetByID(ctx, *albumID); err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return apperror.Notfoundf("Album with id %s not found", *albumID)
		}
		return apperror.Server("load album", err)
	}
	return nil
}
