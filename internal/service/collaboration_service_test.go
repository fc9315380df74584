package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/cache"
)

// Adding a collaborator drops the cached playlist lists of the owner, the
// new collaborator and every existing collaborator.
func TestCollaborationAdd_FansOutInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)
	_, err = f.collabs.Add(ctx, u1, p1, u3)
	require.NoError(t, err)

	for _, u := range []string{u1, u2, u3} {
		_, _, err := f.playlists.ListForUser(ctx, u)
		require.NoError(t, err)
	}

	_, err = f.collabs.Add(ctx, u1, p1, u2)
	require.NoError(t, err)
	for _, u := range []string{u1, u2, u3} {
		assert.False(t, f.mr.Exists(cache.UserPlaylists(u)), u)
	}

	got, cached, err := f.playlists.ListForUser(ctx, u2)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, got, 1)
	assert.Equal(t, p1, got[0].ID)
}

func TestCollaborationAdd_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)

	first, err := f.collabs.Add(ctx, u1, p1, u2)
	require.NoError(t, err)
	second, err := f.collabs.Add(ctx, u1, p1, u2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCollaborationAdd_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)

	_, err = f.collabs.Add(ctx, u2, p1, u2)
	assert.True(t, apperror.Is(err, apperror.ErrForbidden))

	_, err = f.collabs.Add(ctx, u1, "playlist-missing", u2)
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))

	_, err = f.collabs.Add(ctx, u1, p1, "user-missing")
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))

	_, err = f.collabs.Add(ctx, u1, p1, "")
	assert.True(t, apperror.Is(err, apperror.ErrBadRequest))
}

// A non-owner learns nothing about which user ids exist.
func TestCollaborationAdd_OwnershipCheckedBeforeUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)

	_, err = f.collabs.Add(ctx, u2, p1, "user-missing")
	assert.True(t, apperror.Is(err, apperror.ErrForbidden))

	_, err = f.collabs.Add(ctx, u1, p1, "user-missing")
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

// The removed user is only in the "before" set; their list must still go.
func TestCollaborationRemove_InvalidatesRemovedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)
	for _, u := range []string{u2, u3} {
		_, err = f.collabs.Add(ctx, u1, p1, u)
		require.NoError(t, err)
	}
	f.seed(t, cache.UserPlaylists(u1), cache.UserPlaylists(u2), cache.UserPlaylists(u3))

	_, err = f.collabs.Remove(ctx, u1, p1, u2)
	require.NoError(t, err)
	for _, u := range []string{u1, u2, u3} {
		assert.False(t, f.mr.Exists(cache.UserPlaylists(u)), u)
	}

	got, _, err := f.playlists.ListForUser(ctx, u2)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, err = f.playlists.Songs(ctx, u2, p1)
	assert.True(t, apperror.Is(err, apperror.ErrForbidden))
}

func TestCollaborationRemove_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	p1, err := f.playlists.Create(ctx, u1, "P1")
	require.NoError(t, err)
	for _, u := range []string{u2, u3} {
		_, err = f.collabs.Add(ctx, u1, p1, u)
		require.NoError(t, err)
	}

	_, err = f.collabs.Remove(ctx, u2, p1, u3)
	assert.True(t, apperror.Is(err, apperror.ErrForbidden), "collaborator removing someone else")

	_, err = f.collabs.Remove(ctx, u2, p1, u2)
	assert.NoError(t, err, "collaborator leaving")

	_, err = f.collabs.Remove(ctx, u2, p1, u2)
	assert.True(t, apperror.Is(err, apperror.ErrForbidden), "former collaborator")

	_, err = f.collabs.Remove(ctx, u1, p1, u2)
	assert.True(t, apperror.Is(err, apperror.ErrNotFound), "owner removing a non-collaborator")
}
