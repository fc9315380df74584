// Package authz decides who may read or change a playlist.  Every decision
// reads the store of record; cached data is never consulted.
package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/middleware"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

// MissingPolicy selects how a missing playlist is reported by
// AssertCollabAccess.
type MissingPolicy int

const (
	// MissingAsNotFound reports a missing playlist as NotFound.
	MissingAsNotFound MissingPolicy = iota
	// MissingAsForbidden reports a missing playlist as Forbidden, so the
	// response does not reveal whether the playlist exists.
	MissingAsForbidden
)

func (p MissingPolicy) String() string {
	switch p {
	case MissingAsNotFound:
		return "not-found"
	case MissingAsForbidden:
		return "forbidden"
	}
	return fmt.Sprintf("MissingPolicy(%d)", int(p))
}

// PlaylistStore is the playlist lookup the engine needs.
type PlaylistStore interface {
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
}

// CollaborationStore is the collaborator lookup the engine needs.
type CollaborationStore interface {
	UserIDsByPlaylist(ctx context.Context, playlistID string) ([]string, error)
}

// Engine answers access questions about playlists.
type Engine struct {
	playlists PlaylistStore
	collabs   CollaborationStore
}

func NewEngine(playlists PlaylistStore, collabs CollaborationStore) *Engine {
	return &Engine{playlists: playlists, collabs: collabs}
}

// ResolveUserID returns the authenticated user of the request.
func (e *Engine) ResolveUserID(c echo.Context) (string, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return "", apperror.Unauthorized("User not authenticated")
	}
	return id, nil
}

// AssertCollabAccess returns the playlist when userID owns it or
// collaborates on it.  A missing playlist is reported according to policy;
// any other caller gets Forbidden.
func (e *Engine) AssertCollabAccess(ctx context.Context, userID, playlistID string, policy MissingPolicy) (*model.Playlist, error) {
	p, err := e.load(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			if policy == MissingAsForbidden {
				return nil, apperror.Forbidden(fmt.Sprintf("You do not have permission to access playlist %s", playlistID))
			}
			return nil, apperror.Notfoundf("Playlist with id %s not found", playlistID)
		}
		return nil, err
	}

	if p.Owner == userID {
		return p, nil
	}
	isCollab, err := e.isCollaborator(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}
	if !isCollab {
		return nil, apperror.Forbidden(fmt.Sprintf("User with id %s does not have access to playlist with id %s", userID, playlistID))
	}
	return p, nil
}

// AssertOwnership fails with Forbidden unless userID owns p.
func (e *Engine) AssertOwnership(userID string, p *model.Playlist) error {
	if p == nil || p.Owner != userID {
		return apperror.Forbidden("You are not the owner of this playlist")
	}
	return nil
}

// AssertDeleteAccess returns the playlist when userID owns it.  A missing
// playlist is Forbidden, never NotFound.
func (e *Engine) AssertDeleteAccess(ctx context.Context, userID, playlistID string) (*model.Playlist, error) {
	p, err := e.load(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return nil, apperror.Forbidden(fmt.Sprintf("Playlist with id %s not found", playlistID))
		}
		return nil, err
	}
	if p.Owner != userID {
		return nil, apperror.Forbidden("You do not have permission to delete this playlist")
	}
	return p, nil
}

// AssertCollaboratorOnly fails with Forbidden unless userID is listed as a
// collaborator of the playlist.  Ownership does not count.
func (e *Engine) AssertCollaboratorOnly(ctx context.Context, userID, playlistID string) error {
	isCollab, err := e.isCollaborator(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	if !isCollab {
		return apperror.Forbidden(fmt.Sprintf("User with id %s is not a collaborator of playlist %s", userID, playlistID))
	}
	return nil
}

func (e *Engine) load(ctx context.Context, playlistID string) (*model.Playlist, error) {
	p, err := e.playlists.GetByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return nil, err
		}
		return nil, apperror.Server("load playlist", err)
	}
	return p, nil
}

func (e *Engine) isCollaborator(ctx context.Context, userID, playlistID string) (bool, error) {
	ids, err := e.collabs.UserIDsByPlaylist(ctx, playlistID)
	if err != nil {
		return false, apperror.Server("load collaborators", err)
	}
	return slices.Contains(ids, userID), nil
}
