package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

// AlbumInput is the payload for creating or replacing an album.
type AlbumInput struct {
	Name string `json:"name"`
	Year int    `json:"year"`
}

func (in AlbumInput) validate() error {
	return firstErr(required("name", in.Name), releaseYear(in.Year))
}

// AlbumService owns albums, their likes and their covers.
type AlbumService struct {
	albums  AlbumStore
	songs   SongStore
	likes   AlbumLikeStore
	covers  CoverStorage
	cache   cache.Cache
	ttl     time.Duration
	baseURL string
}

// NewAlbumService builds the service.  coverBaseURL is the public URL prefix
// under which stored cover files are served.
func NewAlbumService(albums AlbumStore, songs SongStore, likes AlbumLikeStore, covers CoverStorage, c cache.Cache, opts CacheOptions, coverBaseURL string) *AlbumService {
	return &AlbumService{
		albums: albums, songs: songs, likes: likes, covers: covers,
		cache: c, ttl: opts.ttl(), baseURL: strings.TrimRight(coverBaseURL, "/"),
	}
}

func (s *AlbumService) Create(ctx context.Context, in AlbumInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	a := &model.Album{Name: strings.TrimSpace(in.Name), Year: in.Year}
	if err := s.albums.Create(ctx, a); err != nil {
		return "", apperror.Server("create album", err)
	}
	return a.ID, nil
}

// Get returns an album with its songs.
func (s *AlbumService) Get(ctx context.Context, id string) (*model.AlbumDetail, error) {
	a, err := s.album(ctx, id)
	if err != nil {
		return nil, err
	}
	songs, err := s.songs.ListByAlbum(ctx, id)
	if err != nil {
		return nil, apperror.Server("load album songs", err)
	}
	return &model.AlbumDetail{Album: *a, Songs: songs}, nil
}

func (s *AlbumService) Update(ctx context.Context, id string, in AlbumInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if err := s.albums.Update(ctx, id, strings.TrimSpace(in.Name), in.Year); err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return apperror.Notfoundf("Album with id %s not found", id)
		}
		return apperror.Server("update album", err)
	}
	return nil
}

// Delete removes an album.  Its songs stay in the catalog without an album,
// so their cached details are dropped.
func (s *AlbumService) Delete(ctx context.Context, id string) error {
	songs, err := s.songs.ListByAlbum(ctx, id)
	if err != nil {
		return apperror.Server("load album songs", err)
	}
	if err := s.albums.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return apperror.Notfoundf("Album with id %s not found", id)
		}
		return apperror.Server("delete album", err)
	}
	keys := []string{cache.AlbumLikes(id)}
	for _, song := range songs {
		keys = append(keys, cache.Song(song.ID))
	}
	return cache.Invalidate(ctx, s.cache, keys...)
}

// Like records that userID likes the album.  Liking twice is a Conflict.
func (s *AlbumService) Like(ctx context.Context, userID, albumID string) error {
	if _, err := s.album(ctx, albumID); err != nil {
		return err
	}
	liked, err := s.likes.Exists(ctx, userID, albumID)
	if err != nil {
		return apperror.Server("check like", err)
	}
	if liked {
		return apperror.Conflict(fmt.Sprintf("User with id %s already liked album with id %s", userID, albumID))
	}
	if err := s.likes.Add(ctx, userID, albumID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.Conflict(fmt.Sprintf("User with id %s already liked album with id %s", userID, albumID))
		}
		return apperror.Server("add like", err)
	}
	return cache.Invalidate(ctx, s.cache, cache.AlbumLikes(albumID))
}

// Unlike removes userID's like.  Unliking an album that was not liked is a
// BadRequest.
func (s *AlbumService) Unlike(ctx context.Context, userID, albumID string) error {
	if _, err := s.album(ctx, albumID); err != nil {
		return err
	}
	liked, err := s.likes.Exists(ctx, userID, albumID)
	if err != nil {
		return apperror.Server("check like", err)
	}
	if !liked {
		return apperror.BadRequest(fmt.Sprintf("User with id %s has not liked album with id %s", userID, albumID))
	}
	if err := s.likes.Remove(ctx, userID, albumID); err != nil {
		if errors.Is(err, repository.ErrLikeNotFound) {
			return apperror.BadRequest(fmt.Sprintf("User with id %s has not liked album with id %s", userID, albumID))
		}
		return apperror.Server("remove like", err)
	}
	return cache.Invalidate(ctx, s.cache, cache.AlbumLikes(albumID))
}

// LikesCount returns how many users like the album and whether the number
// came from the cache.
func (s *AlbumService) LikesCount(ctx context.Context, albumID string) (int, bool, error) {
	return cache.Fetch(ctx, s.cache, cache.AlbumLikes(albumID), s.ttl, func(ctx context.Context) (int, error) {
		if _, err := s.album(ctx, albumID); err != nil {
			return 0, err
		}
		n, err := s.likes.Count(ctx, albumID)
		if err != nil {
			return 0, apperror.Server("count likes", err)
		}
		return n, nil
	})
}

// UploadCover stores a cover image and records its public URL on the album.
func (s *AlbumService) UploadCover(ctx context.Context, albumID, contentType string, r io.Reader) (string, error) {
	if _, err := s.album(ctx, albumID); err != nil {
		return "", err
	}
	name, err := s.covers.Save(ctx, albumID, contentType, r)
	if err != nil {
		var ae *apperror.AppError
		if errors.As(err, &ae) {
			return "", err
		}
		return "", apperror.Server("store cover", err)
	}
	url := s.baseURL + "/albums/covers/" + name
	if err := s.albums.SetCover(ctx, albumID, url); err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return "", apperror.Notfoundf("Album with id %s not found", albumID)
		}
		return "", apperror.Server("record cover", err)
	}
	return url, nil
}

func (s *AlbumService) album(ctx context.Context, id string) (*model.Album, error) {
	a, err := s.albums.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return nil, apperror.Notfoundf("Album with id %s not found", id)
		}
		return nil, apperror.Server("load album", err)
	}
	return a, nil
}
