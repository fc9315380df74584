package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/service"
)

// SongHandler serves /songs.
type SongHandler struct {
	Songs *service.SongService
}

func NewSongHandler(s *service.SongService) *SongHandler {
	return &SongHandler{Songs: s}
}

// Create handles POST /songs.
func (h *SongHandler) Create(c echo.Context) error {
	var in service.SongInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Songs.Create(ctx, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"songId": id})
}

// List handles GET /songs with optional title and performer filters.
func (h *SongHandler) List(c echo.Context) error {
	q := model.SongQuery{Title: c.QueryParam("title"), Performer: c.QueryParam("performer")}
	ctx, cancel := reqCtx(c)
	defer cancel()

	songs, cached, err := h.Songs.List(ctx, q)
	if err != nil {
		return err
	}
	if cached {
		c.Response().Header().Set("X-Data-Source", "cache")
	}
	return success(c, http.StatusOK, echo.Map{"songs": songs})
}

// Get handles GET /songs/:id.
func (h *SongHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	song, cached, err := h.Songs.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if cached {
		c.Response().Header().Set("X-Data-Source", "cache")
	}
	return success(c, http.StatusOK, echo.Map{"song": song})
}

// Update handles PUT /songs/:id.
func (h *SongHandler) Update(c echo.Context) error {
	var in service.SongInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Songs.Update(ctx, c.Param("id"), in); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Song updated")
}

// Delete handles DELETE /songs/:id.
func (h *SongHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Songs.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Song deleted")
}
