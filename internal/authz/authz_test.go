package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/middleware"
	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

type fakePlaylists struct {
	rows map[string]model.Playlist
	err  error
}

func (f *fakePlaylists) GetByID(_ context.Context, id string) (*model.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrPlaylistNotFound
	}
	return &p, nil
}

type fakeCollabs struct {
	byPlaylist map[string][]string
	calls      int
}

func (f *fakeCollabs) UserIDsByPlaylist(_ context.Context, id string) ([]string, error) {
	f.calls++
	return f.byPlaylist[id], nil
}

func newEngine() (*Engine, *fakeCollabs) {
	pl := &fakePlaylists{rows: map[string]model.Playlist{
		"P1": {ID: "P1", Name: "Road trip", Owner: "U1"},
	}}
	co := &fakeCollabs{byPlaylist: map[string][]string{}}
	return NewEngine(pl, co), co
}

func TestAssertCollabAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("stranger is forbidden", func(t *testing.T) {
		e, _ := newEngine()
		_, err := e.AssertCollabAccess(ctx, "U2", "P1", MissingAsNotFound)
		assert.True(t, apperror.Is(err, apperror.ErrForbidden))
	})

	t.Run("collaborator is allowed", func(t *testing.T) {
		e, co := newEngine()
		co.byPlaylist["P1"] = []string{"U3", "U2"}
		p, err := e.AssertCollabAccess(ctx, "U2", "P1", MissingAsNotFound)
		require.NoError(t, err)
		assert.Equal(t, "P1", p.ID)
	})

	t.Run("owner short-circuits the collaborator lookup", func(t *testing.T) {
		e, co := newEngine()
		p, err := e.AssertCollabAccess(ctx, "U1", "P1", MissingAsForbidden)
		require.NoError(t, err)
		assert.Equal(t, "U1", p.Owner)
		assert.Zero(t, co.calls)
	})

	t.Run("owner listed as collaborator too", func(t *testing.T) {
		e, co := newEngine()
		co.byPlaylist["P1"] = []string{"U1"}
		_, err := e.AssertCollabAccess(ctx, "U1", "P1", MissingAsNotFound)
		assert.NoError(t, err)
	})

	t.Run("missing playlist follows policy", func(t *testing.T) {
		e, _ := newEngine()
		_, err := e.AssertCollabAccess(ctx, "U1", "nope", MissingAsNotFound)
		assert.True(t, apperror.Is(err, apperror.ErrNotFound))

		_, err = e.AssertCollabAccess(ctx, "U1", "nope", MissingAsForbidden)
		assert.True(t, apperror.Is(err, apperror.ErrForbidden))
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		e := NewEngine(&fakePlaylists{err: errors.New("conn refused")}, &fakeCollabs{})
		_, err := e.AssertCollabAccess(ctx, "U1", "P1", MissingAsNotFound)
		assert.True(t, apperror.Is(err, apperror.ErrServer))
	})
}

func TestAssertDeleteAccess(t *testing.T) {
	ctx := context.Background()
	e, co := newEngine()
	co.byPlaylist["P1"] = []string{"U2"}

	p, err := e.AssertDeleteAccess(ctx, "U1", "P1")
	require.NoError(t, err)
	assert.Equal(t, "P1", p.ID)

	for _, tc := range []struct{ user, playlist string }{
		{"U2", "P1"},   // collaborator
		{"U9", "P1"},   // stranger
		{"U1", "nope"}, // missing
		{"U9", "nope"},
	} {
		_, err := e.AssertDeleteAccess(ctx, tc.user, tc.playlist)
		assert.True(t, apperror.Is(err, apperror.ErrForbidden), "%s on %s", tc.user, tc.playlist)
		assert.False(t, apperror.Is(err, apperror.ErrNotFound))
	}
}

func TestAssertOwnership(t *testing.T) {
	e, _ := newEngine()
	p := &model.Playlist{ID: "P1", Owner: "U1"}
	assert.NoError(t, e.AssertOwnership("U1", p))
	assert.True(t, apperror.Is(e.AssertOwnership("U2", p), apperror.ErrForbidden))
	assert.True(t, apperror.Is(e.AssertOwnership("U1", nil), apperror.ErrForbidden))
}

func TestAssertCollaboratorOnly(t *testing.T) {
	ctx := context.Background()
	e, co := newEngine()
	co.byPlaylist["P1"] = []string{"U2"}

	assert.NoError(t, e.AssertCollaboratorOnly(ctx, "U2", "P1"))
	assert.True(t, apperror.Is(e.AssertCollaboratorOnly(ctx, "U1", "P1"), apperror.ErrForbidden))
}

func TestResolveUserID(t *testing.T) {
	e, _ := newEngine()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := e.ResolveUserID(c)
	assert.True(t, apperror.Is(err, apperror.ErrUnauthorized))

	middleware.SetIdentity(c, "U1", "alice")
	id, err := e.ResolveUserID(c)
	require.NoError(t, err)
	assert.Equal(t, "U1", id)
}
