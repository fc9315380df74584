package handler // handler holds the HTTP handlers of the API

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/openmusic-api/internal/apperror"
)

// requestTimeout bounds the store and cache work of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"status": "success", "data": data})
}

func successMsg(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"status": "success", "message": msg})
}

func successMsgData(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, echo.Map{"status": "success", "message": msg, "data": data})
}

// bind decodes the request body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	return nil
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case apperror.Is(err, apperror.ErrBadRequest):
		return http.StatusBadRequest
	case apperror.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case apperror.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case apperror.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case apperror.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case apperror.Is(err, apperror.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error returned by a handler or middleware.
// Client errors become {"status":"fail"}; anything else is logged and
// rendered as {"status":"error"} without its cause.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		status := "fail"
		if he.Code >= http.StatusInternalServerError {
			status = "error"
		}
		_ = c.JSON(he.Code, echo.Map{"status": status, "message": msg})
		return
	}

	code := statusOf(err)
	if code == http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", c.Request().Method, c.Path(), err)
		_ = c.JSON(code, echo.Map{"status": "error", "message": "Sorry, there was a failure on our server."})
		return
	}
	var ae *apperror.AppError
	errors.As(err, &ae)
	_ = c.JSON(code, echo.Map{"status": "fail", "message": ae.Message})
}
