package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/service"
)

// AuthHandler serves user registration and the token endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /users.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"userId": id})
}

// Login handles POST /authentications and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	return successMsgData(c, http.StatusCreated, "Authentication added", pair)
}

// Refresh handles PUT /authentications: a new access token for a stored
// refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return successMsgData(c, http.StatusOK, "Access token refreshed", echo.Map{"accessToken": access})
}

// Logout handles DELETE /authentications.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return err
	}
	return successMsg(c, http.StatusOK, "Refresh token deleted")
}
