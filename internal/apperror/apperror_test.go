package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsAreMatchableThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", Forbidden("no access"))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, Is(err, ErrForbidden))
	assert.Equal(t, "handler: no access", err.Error())
}

func TestServerErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Server("cache unavailable", cause)

	assert.True(t, errors.Is(err, ErrServer))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "cache unavailable: connection refused", err.Error())
}

func TestNotfoundf(t *testing.T) {
	err := Notfoundf("Playlist with id %s not found", "playlist-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.Equal(t, "Playlist with id playlist-1 not found", err.Error())
}

func TestIsRejectsPlainErrors(t *testing.T) {
	assert.False(t, Is(errors.New("boom"), ErrServer))
}
