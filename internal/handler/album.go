package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/authz"
	"github.com/iliyamo/openmusic-api/internal/service"
)

// AlbumHandler serves /albums, its likes and its covers.
type AlbumHandler struct {
	Albums *service.AlbumService
	Authz  *authz.Engine
}

func NewAlbumHandler(a *service.AlbumService, az *authz.Engine) *AlbumHandler {
	return &AlbumHandler{Albums: a, Authz: az}
}

// Create handles POST /albums.
func (h *AlbumHandler) Create(c echo.Context) error {
	var in service.AlbumInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Albums.Create(ctx, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"albumId": id})
}

// Get handles GET /albums/:id.
func (h *AlbumHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Albums.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"album": a})
}

// Update handles PUT /albums/:id.
func (h *AlbumHandler) Update(c echo.Context) error {
	var in service.AlbumInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Albums.Update(ctx, c.Param("id"), in); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Album updated")
}

// Delete handles DELETE /albums/:id.
func (h *AlbumHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Albums.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Album deleted")
}

// UploadCover handles POST /albums/:id/covers with a multipart "cover" file.
func (h *AlbumHandler) UploadCover(c echo.Context) error {
	fh, err := c.FormFile("cover")
	if err != nil {
		return apperror.BadRequest("cover file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return apperror.BadRequest("cover file is unreadable")
	}
	defer f.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()

	url, err := h.Albums.UploadCover(ctx, c.Param("id"), fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return err
	}
	return successMsgData(c, http.StatusCreated, "Cover uploaded", echo.Map{"coverUrl": url})
}

// Like handles POST /albums/:id/likes.
func (h *AlbumHandler) Like(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Albums.Like(ctx, userID, c.Param("id")); err != nil {
		return err
	}
	return successMsg(c, http.StatusCreated, "Album liked")
}

// Unlike handles DELETE /albums/:id/likes.
func (h *AlbumHandler) Unlike(c echo.Context) error {
	userID, err := h.Authz.ResolveUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Albums.Unlike(ctx, userID, c.Param("id")); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Album unliked")
}

// Likes handles GET /albums/:id/likes.  A cached answer is marked with
// X-Data-Source: cache.
func (h *AlbumHandler) Likes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, cached, err := h.Albums.LikesCount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if cached {
		c.Response().Header().Set("X-Data-Source", "cache")
	}
	return success(c, http.StatusOK, echo.Map{"likes": n})
}
