package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/authz"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

// CollaborationService grants and revokes playlist collaboration.  Every
// change invalidates the playlist lists of the owner and of all
// collaborators, read from the store before and after the change.
type CollaborationService struct {
	playlists PlaylistStore
	collabs   CollaborationStore
	users     UserStore
	authz     *authz.Engine
	cache     cache.Cache
}

func NewCollaborationService(playlists PlaylistStore, collabs CollaborationStore, users UserStore, az *authz.Engine, c cache.Cache) *CollaborationService {
	return &CollaborationService{playlists: playlists, collabs: collabs, users: users, authz: az, cache: c}
}

// Add makes userID a collaborator of playlistID.  Only the owner may do
// this.  Adding an existing collaborator again returns the existing grant.
func (s *CollaborationService) Add(ctx context.Context, callerID, playlistID, userID string) (string, error) {
	if err := firstErr(required("playlistId", playlistID), required("userId", userID)); err != nil {
		return "", err
	}
	p, err := s.playlist(ctx, playlistID)
	if err != nil {
		return "", err
	}
	if err := s.authz.AssertOwnership(callerID, p); err != nil {
		return "", err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperror.Notfoundf("User with id %s not found", userID)
		}
		return "", apperror.Server("load user", err)
	}

	var c *model.Collaboration
	err = s.mutate(ctx, p, func() (err error) {
		var created bool
		c, created, err = s.collabs.Add(ctx, playlistID, userID)
		if err == nil && created {
			log.Printf("collaboration: %s joined %s", userID, playlistID)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// Remove revokes userID's access to playlistID.  The owner may remove
// anyone; a collaborator may remove only themselves.
func (s *CollaborationService) Remove(ctx context.Context, callerID, playlistID, userID string) (string, error) {
	if err := firstErr(required("playlistId", playlistID), required("userId", userID)); err != nil {
		return "", err
	}
	p, err := s.playlist(ctx, playlistID)
	if err != nil {
		return "", err
	}
	if err := s.authz.AssertOwnership(callerID, p); err != nil {
		if callerID != userID {
			return "", apperror.Forbidden("You do not have permission to remove collaborations from this playlist")
		}
		if err := s.authz.AssertCollaboratorOnly(ctx, callerID, playlistID); err != nil {
			return "", err
		}
	}

	var c *model.Collaboration
	err = s.mutate(ctx, p, func() (err error) {
		c, err = s.collabs.Remove(ctx, playlistID, userID)
		if errors.Is(err, repository.ErrCollaborationNotFound) {
			return apperror.NotFound(fmt.Sprintf("User with id %s is not a collaborator of playlist %s", userID, playlistID))
		}
		return err
	})
	if err != nil {
		return "", err
	}
	log.Printf("collaboration: %s left %s", userID, playlistID)
	return c.ID, nil
}

func (s *CollaborationService) playlist(ctx context.Context, playlistID string) (*model.Playlist, error) {
	p, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return nil, apperror.Notfoundf("Playlist with id %s not found", playlistID)
		}
		return nil, apperror.Server("load playlist", err)
	}
	return p, nil
}

// mutate runs change between two reads of the collaborator set and then
// invalidates the owner's key and the key of every user in either set.
func (s *CollaborationService) mutate(ctx context.Context, p *model.Playlist, change func() error) error {
	before, err := s.collabs.UserIDsByPlaylist(ctx, p.ID)
	if err != nil {
		return apperror.Server("load collaborators", err)
	}
	if err := change(); err != nil {
		var ae *apperror.AppError
		if errors.As(err, &ae) {
			return err
		}
		return apperror.Server("update collaborations", err)
	}
	after, err := s.collabs.UserIDsByPlaylist(ctx, p.ID)
	if err != nil {
		return apperror.Server("load collaborators", err)
	}
	return cache.Invalidate(ctx, s.cache, audienceKeys(p.Owner, before, after)...)
}
