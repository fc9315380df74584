package middleware // reusable HTTP middleware for the Echo server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/utils"
)

// VerifyFunc validates a raw access token and returns its claims.
type VerifyFunc func(token string) (*utils.Claims, error)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// with verify and stores the token's subject and username in the
// request context under ctxUserID and ctxUsername.  Requests without a valid
// token stop here with an Unauthorized error, which the server's error
// handler renders.
func JWTAuth(verify VerifyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperror.Unauthorized("Missing authentication")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := verify(raw)
			if err != nil {
				return apperror.Unauthorized("Invalid access token")
			}

			c.Set(ctxUserID, claims.Subject)
			c.Set(ctxUsername, claims.Username)
			return next(c)
		}
	}
}
