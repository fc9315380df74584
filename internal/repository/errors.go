// Package repository holds the stores of record.  Each repository wraps a
// *sql.DB and speaks MySQL; lookups report absence through the sentinel
// errors below so services can decide how absence is surfaced to clients.
package repository

import (
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/xid"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameExists        = errors.New("username already exists")
	ErrTokenNotFound         = errors.New("refresh token not found")
	ErrAlbumNotFound         = errors.New("album not found")
	ErrSongNotFound          = errors.New("song not found")
	ErrPlaylistNotFound      = errors.New("playlist not found")
	ErrPlaylistSongNotFound  = errors.New("song is not in playlist")
	ErrCollaborationNotFound = errors.New("collaboration not found")
	ErrLikeNotFound          = errors.New("like not found")

	// ErrDuplicate is returned when an insert hits a unique key.
	ErrDuplicate = errors.New("duplicate entry")
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// newID builds a prefixed, roughly time-ordered identifier such as
// "playlist-cv37rs3pp9olc6atsptg".
func newID(prefix string) string {
	return prefix + "-" + xid.New().String()
}

var nowUTC = func() time.Time { return time.Now().UTC() }
