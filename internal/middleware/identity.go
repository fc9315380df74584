package middleware

// identity.go holds the context keys written by JWTAuth and the accessors
// the rest of the server uses to read them back.

import "github.com/labstack/echo/v4"

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// UserID returns the authenticated user id, or false when the request
// carries no identity.
func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxUserID).(string)
	return s, ok && s != ""
}

// Username returns the authenticated username, or "" when unknown.
func Username(c echo.Context) string {
	s, _ := c.Get(ctxUsername).(string)
	return s
}

// SetIdentity stores an identity on c.  JWTAuth uses the same keys; this is
// for callers that authenticate by other means (and for tests).
func SetIdentity(c echo.Context, userID, username string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUsername, username)
}

// rateSubject names the caller for rate limiting: the user id when known,
// "anon" otherwise.
func rateSubject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return id
	}
	return "anon"
}
