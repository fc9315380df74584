package model

import "time"

// Playlist mirrors a row of the `playlists` table.  Owner is set at creation
// and never reassigned.
type Playlist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// PlaylistView is a playlist as listed to a user: the owner is resolved to a
// username.
type PlaylistView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// PlaylistSong is the join row between a playlist and a song.
type PlaylistSong struct {
	ID         string `json:"id"`
	PlaylistID string `json:"playlistId"`
	SongID     string `json:"songId"`
}

// Collaboration grants a non-owner read/contribute access to a playlist.
type Collaboration struct {
	ID         string `json:"id"`
	PlaylistID string `json:"playlistId"`
	UserID     string `json:"userId"`
}

// Activity actions recorded for playlist songs.
const (
	ActionAdd    = "add"
	ActionDelete = "delete"
)

// Activity is one append-only audit row for a song added to or removed from
// a playlist.
type Activity struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlistId"`
	SongID     string    `json:"songId"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	Time       time.Time `json:"time"`
}

// ActivityView is an activity joined with the acting username and the song
// title, the shape returned by the activities endpoint.
type ActivityView struct {
	Username string    `json:"username"`
	Title    string    `json:"title"`
	Action   string    `json:"action"`
	Time     time.Time `json:"time"`
}

// PlaylistDetail is a playlist with its owner's username and its songs, the
// shape cached under the playlist's songs key.
type PlaylistDetail struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Username string        `json:"username"`
	Songs    []SongSummary `json:"songs"`
}
