package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/openmusic-api/internal/apperror"
)

func render(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandler_Kinds(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		status string
	}{
		{apperror.BadRequest("bad"), http.StatusBadRequest, "fail"},
		{apperror.Unauthorized("who"), http.StatusUnauthorized, "fail"},
		{apperror.Forbidden("no"), http.StatusForbidden, "fail"},
		{apperror.NotFound("gone"), http.StatusNotFound, "fail"},
		{apperror.Conflict("twice"), http.StatusConflict, "fail"},
		{apperror.PayloadTooLarge("big"), http.StatusRequestEntityTooLarge, "fail"},
		{apperror.Server("db", errors.New("boom")), http.StatusInternalServerError, "error"},
		{errors.New("plain"), http.StatusInternalServerError, "error"},
		{echo.ErrNotFound, http.StatusNotFound, "fail"},
		{echo.NewHTTPError(http.StatusServiceUnavailable, "later"), http.StatusServiceUnavailable, "error"},
	}
	for _, tc := range cases {
		code, body := render(t, tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, tc.status, body["status"], tc.err.Error())
	}
}

func TestErrorHandler_HidesServerCause(t *testing.T) {
	_, body := render(t, apperror.Server("load playlist", errors.New("dial tcp 10.0.0.1:3306")))
	assert.NotContains(t, body["message"], "10.0.0.1")
}

func TestHealth(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, Health(map[string]Pinger{"db": func(context.Context) error { return nil }})(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, Health(map[string]Pinger{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("down") },
	})(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}
