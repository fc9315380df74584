package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/authz"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/queue"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

// PlaylistDeps lists what PlaylistService is built from.
type PlaylistDeps struct {
	Playlists      PlaylistStore
	Collaborations CollaborationStore
	Songs          SongStore
	PlaylistSongs  PlaylistSongStore
	Activities     ActivityStore
	Users          UserStore
	Authz          *authz.Engine
	Cache          cache.Cache
	CacheOptions   CacheOptions
	Exports        ExportQueue
}

// PlaylistService owns playlists, their songs and their activity log.
type PlaylistService struct {
	d   PlaylistDeps
	ttl time.Duration
}

func NewPlaylistService(d PlaylistDeps) *PlaylistService {
	return &PlaylistService{d: d, ttl: d.CacheOptions.ttl()}
}

// Create makes a playlist owned by ownerID and returns its id.
func (s *PlaylistService) Create(ctx context.Context, ownerID, name string) (string, error) {
	if err := required("name", name); err != nil {
		return "", err
	}
	p := &model.Playlist{Name: strings.TrimSpace(name), Owner: ownerID}
	if err := s.d.Playlists.Create(ctx, p); err != nil {
		return "", apperror.Server("create playlist", err)
	}
	if err := cache.Invalidate(ctx, s.d.Cache, cache.UserPlaylists(ownerID)); err != nil {
		return "", err
	}
	log.Printf("playlist: %s created by %s", p.ID, ownerID)
	return p.ID, nil
}

// ListForUser returns the playlists userID owns or collaborates on, each with
// its owner's username.
func (s *PlaylistService) ListForUser(ctx context.Context, userID string) ([]model.PlaylistView, bool, error) {
	return cache.Fetch(ctx, s.d.Cache, cache.UserPlaylists(userID), s.ttl, func(ctx context.Context) ([]model.PlaylistView, error) {
		return s.loadVisible(ctx, userID)
	})
}

func (s *PlaylistService) loadVisible(ctx context.Context, userID string) ([]model.PlaylistView, error) {
	var (
		owned     []model.Playlist
		sharedIDs []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		owned, err = s.d.Playlists.ListByOwner(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		sharedIDs, err = s.d.Collaborations.PlaylistIDsByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Server("list playlists", err)
	}

	ids := make([]string, 0, len(owned)+len(sharedIDs))
	for _, p := range owned {
		ids = append(ids, p.ID)
	}
	for _, id := range sharedIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	playlists, err := s.d.Playlists.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Server("load playlists", err)
	}

	ownerIDs := make([]string, 0, len(playlists))
	for _, p := range playlists {
		if !slices.Contains(ownerIDs, p.Owner) {
			ownerIDs = append(ownerIDs, p.Owner)
		}
	}
	owners, err := s.d.Users.GetManyByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, apperror.Server("load playlist owners", err)
	}
	usernames := make(map[string]string, len(owners))
	for _, u := range owners {
		usernames[u.ID] = u.Username
	}

	out := make([]model.PlaylistView, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, model.PlaylistView{ID: p.ID, Name: p.Name, Username: usernames[p.Owner]})
	}
	return out, nil
}

// Delete removes a playlist the caller owns, along with its songs,
// collaborations and activities.  The playlist lists of the owner and of
// every collaborator are invalidated.
func (s *PlaylistService) Delete(ctx context.Context, userID, playlistID string) error {
	p, err := s.d.Authz.AssertDeleteAccess(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	collaborators, err := s.d.Collaborations.UserIDsByPlaylist(ctx, playlistID)
	if err != nil {
		return apperror.Server("load collaborators", err)
	}
	if _, err := s.d.Playlists.Delete(ctx, playlistID); err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return apperror.Forbidden(fmt.Sprintf("Playlist with id %s not found", playlistID))
		}
		return apperror.Server("delete playlist", err)
	}

	keys := audienceKeys(p.Owner, collaborators)
	keys = append(keys, cache.PlaylistSongs(playlistID))
	if err := cache.Invalidate(ctx, s.d.Cache, keys...); err != nil {
		return err
	}
	log.Printf("playlist: %s deleted by %s (%d collaborators)", playlistID, userID, len(collaborators))
	return nil
}

// AddSong puts a song into a playlist the caller can access and records the
// activity.
func (s *PlaylistService) AddSong(ctx context.Context, userID, playlistID, songID string) error {
	if err := required("songId", songID); err != nil {
		return err
	}
	if _, err := s.d.Authz.AssertCollabAccess(ctx, userID, playlistID, authz.MissingAsNotFound); err != nil {
		return err
	}
	if _, err := s.d.Songs.GetByID(ctx, songID); err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			return apperror.Notfoundf("Song with id %s not found", songID)
		}
		return apperror.Server("load song", err)
	}
	if _, err := s.d.PlaylistSongs.Add(ctx, playlistID, songID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.Conflict(fmt.Sprintf("Song with id %s is already in playlist %s", songID, playlistID))
		}
		return apperror.Server("add song to playlist", err)
	}
	if err := s.record(ctx, userID, playlistID, songID, model.ActionAdd); err != nil {
		return err
	}
	return cache.Invalidate(ctx, s.d.Cache, cache.PlaylistSongs(playlistID))
}

// RemoveSong takes a song out of a playlist the caller can access and
// records the activity.  A missing playlist is reported as Forbidden.
func (s *PlaylistService) RemoveSong(ctx context.Context, userID, playlistID, songID string) error {
	if err := required("songId", songID); err != nil {
		return err
	}
	if _, err := s.d.Authz.AssertCollabAccess(ctx, userID, playlistID, authz.MissingAsForbidden); err != nil {
		return err
	}
	if err := s.d.PlaylistSongs.Remove(ctx, playlistID, songID); err != nil {
		if errors.Is(err, repository.ErrPlaylistSongNotFound) {
			return apperror.Notfoundf("Song with id %s is not in playlist %s", songID, playlistID)
		}
		return apperror.Server("remove song from playlist", err)
	}
	if err := s.record(ctx, userID, playlistID, songID, model.ActionDelete); err != nil {
		return err
	}
	return cache.Invalidate(ctx, s.d.Cache, cache.PlaylistSongs(playlistID))
}

func (s *PlaylistService) record(ctx context.Context, userID, playlistID, songID, action string) error {
	a := &model.Activity{PlaylistID: playlistID, SongID: songID, UserID: userID, Action: action}
	if err := s.d.Activities.Append(ctx, a); err != nil {
		return apperror.Server("record activity", err)
	}
	return nil
}

// Songs returns a playlist with its songs.  Access is checked against the
// store on every call; only the playlist contents are cached.
func (s *PlaylistService) Songs(ctx context.Context, userID, playlistID string) (model.PlaylistDetail, bool, error) {
	p, err := s.d.Authz.AssertCollabAccess(ctx, userID, playlistID, authz.MissingAsNotFound)
	if err != nil {
		return model.PlaylistDetail{}, false, err
	}
	return cache.Fetch(ctx, s.d.Cache, cache.PlaylistSongs(playlistID), s.ttl, func(ctx context.Context) (model.PlaylistDetail, error) {
		owner, err := s.d.Users.GetByID(ctx, p.Owner)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return model.PlaylistDetail{}, apperror.Notfoundf("Owner with id %s not found", p.Owner)
			}
			return model.PlaylistDetail{}, apperror.Server("load playlist owner", err)
		}
		songs, err := s.d.Songs.ListByPlaylist(ctx, playlistID)
		if err != nil {
			return model.PlaylistDetail{}, apperror.Server("load playlist songs", err)
		}
		return model.PlaylistDetail{ID: p.ID, Name: p.Name, Username: owner.Username, Songs: songs}, nil
	})
}

// Activities returns the playlist's song activity log, oldest first.
func (s *PlaylistService) Activities(ctx context.Context, userID, playlistID string) ([]model.ActivityView, error) {
	if _, err := s.d.Authz.AssertCollabAccess(ctx, userID, playlistID, authz.MissingAsNotFound); err != nil {
		return nil, err
	}
	acts, err := s.d.Activities.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, apperror.Server("load activities", err)
	}
	return acts, nil
}

// Export queues an export of a playlist the caller owns to targetEmail.
func (s *PlaylistService) Export(ctx context.Context, userID, playlistID, targetEmail string) error {
	if err := firstErr(required("targetEmail", targetEmail), email("targetEmail", targetEmail)); err != nil {
		return err
	}
	p, err := s.d.Authz.AssertCollabAccess(ctx, userID, playlistID, authz.MissingAsNotFound)
	if err != nil {
		return err
	}
	if err := s.d.Authz.AssertOwnership(userID, p); err != nil {
		return err
	}
	ev := queue.PlaylistExportRequested{
		PlaylistID:  playlistID,
		TargetEmail: targetEmail,
		RequestedBy: userID,
		RequestedAt: time.Now().UTC(),
	}
	return s.d.Exports.PublishExport(ctx, ev)
}

// audienceKeys returns the playlist-list keys of the owner and of every user
// in the given collaborator sets.
func audienceKeys(owner string, sets ...[]string) []string {
	keys := []string{cache.UserPlaylists(owner)}
	for _, set := range sets {
		for _, id := range set {
			k := cache.UserPlaylists(id)
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}
