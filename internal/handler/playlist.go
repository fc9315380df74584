package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/authz"
	"github.com/iliyamo/openmusic-api/internal/service"
)

// PlaylistHandler serves /playlists, /collaborations and /export.  Every
// route requires an authenticated user.
type PlaylistHandler struct {
	Playlists      *service.PlaylistService
	Collaborations *service.CollaborationService
	Authz          *authz.Engine
}

func NewPlaylistHandler(p *service.PlaylistService, cs *service.CollaborationService, az *authz.Engine) *PlaylistHandler {
	return &PlaylistHandler{Playlists: p, Collaborations: cs, Authz: az}
}

type playlistReq struct {
	Name string `json:"name"`
}

type playlistSongReq struct {
	SongID string `json:"songId"`
}

type collaborationReq struct {
	PlaylistID string `json:"playlistId"`
	UserID     string `json:"userId"`
}

type exportReq struct {
	TargetEmail string `json:"targetEmail"`
}

// Create handles POST /playlists.
func (h *PlaylistHandler) Create(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	var req playlistReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Playlists.Create(ctx, userID, req.Name)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"playlistId": id})
}

// List handles GET /playlists: owned and shared playlists of the caller.
func (h *PlaylistHandler) List(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	playlists, cached, err := h.Playlists.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	if cached {
		c.Response().Header().Set("X-Data-Source", "cache")
	}
	return success(c, http.StatusOK, echo.Map{"playlists": playlists})
}

// Delete handles DELETE /playlists/:id.
func (h *PlaylistHandler) Delete(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Playlists.Delete(ctx, userID, c.Param("id")); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Playlist deleted")
}

// AddSong handles POST /playlists/:id/songs.
func (h *PlaylistHandler) AddSong(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	var req playlistSongReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Playlists.AddSong(ctx, userID, c.Param("id"), req.SongID); err != nil {
		return err
	}
	return successMsg(c, http.StatusCreated, "Song added to playlist")
}

// Songs handles GET /playlists/:id/songs.
func (h *PlaylistHandler) Songs(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, cached, err := h.Playlists.Songs(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}
	if cached {
		c.Response().Header().Set("X-Data-Source", "cache")
	}
	return success(c, http.StatusOK, echo.Map{"playlist": p})
}

// RemoveSong handles DELETE /playlists/:id/songs.
func (h *PlaylistHandler) RemoveSong(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	var req playlistSongReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Playlists.RemoveSong(ctx, userID, c.Param("id"), req.SongID); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Song removed from playlist")
}

// Activities handles GET /playlists/:id/activities.
func (h *PlaylistHandler) Activities(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id := c.Param("id")
	acts, err := h.Playlists.Activities(ctx, userID, id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"playlistId": id, "activities": acts})
}

// AddCollaborator handles POST /collaborations.
func (h *PlaylistHandler) AddCollaborator(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	var req collaborationReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Collaborations.Add(ctx, userID, req.PlaylistID, req.UserID)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"collaborationId": id})
}

// RemoveCollaborator handles DELETE /collaborations.
func (h *PlaylistHandler) RemoveCollaborator(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	var req collaborationReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Collaborations.Remove(ctx, userID, req.PlaylistID, req.UserID); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Collaboration removed")
}

// Export handles POST /export/playlist/:id.  The export runs in the
// consumer; the request only queues it.
func (h *PlaylistHandler) Export(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	var req exportReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Playlists.Export(ctx, userID, c.Param("id"), req.TargetEmail); err != nil {
		return err
	}
	return successMsg(c, http.StatusCreated, "Your request is being processed")
}
