package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// PlaylistSongRepo stores playlist membership of songs.
type PlaylistSongRepo struct{ db *sql.DB }

func NewPlaylistSongRepo(db *sql.DB) *PlaylistSongRepo { return &PlaylistSongRepo{db: db} }

// Add puts songID into playlistID.  ErrDuplicate is returned when the song
// is already there.
func (r *PlaylistSongRepo) Add(ctx context.Context, playlistID, songID string) (*model.PlaylistSong, error) {
	id := newID("ps")
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO playlist_songs (id, playlist_id, song_id) VALUES (?,?,?)", id, playlistID, songID)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &model.PlaylistSong{ID: id, PlaylistID: playlistID, SongID: songID}, nil
}

// Remove takes songID out of playlistID.  ErrPlaylistSongNotFound is
// returned when the song was not in the playlist.
func (r *PlaylistSongRepo) Remove(ctx context.Context, playlistID, songID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?", playlistID, songID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlaylistSongNotFound
	}
	return nil
}

// Exists reports whether songID is in playlistID.
func (r *PlaylistSongRepo) Exists(ctx context.Context, playlistID, songID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM playlist_songs WHERE playlist_id = ? AND song_id = ? LIMIT 1",
		playlistID, songID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// PlaylistIDsBySong lists the playlists that contain songID.
func (r *PlaylistSongRepo) PlaylistIDsBySong(ctx context.Context, songID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT playlist_id FROM playlist_songs WHERE song_id = ?", songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
