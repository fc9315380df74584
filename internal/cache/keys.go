package cache

import (
	"net/url"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// Key families.  Each family is invalidated by the writes that can change
// what it holds.
const (
	// Songs holds the unfiltered song listing.
	Songs = "songs"
	// SongsParam is a hash of filtered song listings keyed by SongsQueryField.
	SongsParam = "songs:Param"
)

// UserPlaylists holds the playlists visible to a user (owned and shared).
func UserPlaylists(userID string) string { return "user:" + userID + ":playlists" }

// PlaylistSongs holds a playlist with its songs.
func PlaylistSongs(playlistID string) string { return "playlist:" + playlistID + ":songs" }

// Song holds one song's details.
func Song(songID string) string { return "songs:" + songID }

// AlbumLikes holds an album's like count.
func AlbumLikes(albumID string) string { return "album:" + albumID + ":likesCount" }

// SongsQueryField is the canonical field under SongsParam for a filter, so
// equivalent queries share one entry.
func SongsQueryField(q model.SongQuery) string {
	v := url.Values{}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	if q.Performer != "" {
		v.Set("performer", q.Performer)
	}
	return v.Encode()
}
