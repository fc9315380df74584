package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// ActivityRepo is the append-only audit log of playlist song changes.
type ActivityRepo struct{ db *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Append records a. When a.Time is zero the current UTC time is used.
func (r *ActivityRepo) Append(ctx context.Context, a *model.Activity) error {
	if a.Time.IsZero() {
		a.Time = nowUTC()
	}
	id := newID("activity")
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO playlist_song_activities (id, playlist_id, song_id, user_id, action, time)
		 VALUES (?,?,?,?,?,?)`,
		id, a.PlaylistID, a.SongID, a.UserID, a.Action, a.Time)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// ListByPlaylist returns the activities of a playlist, oldest first, joined
// with the acting username and the song title.
func (r *ActivityRepo) ListByPlaylist(ctx context.Context, playlistID string) ([]model.ActivityView, error) {
	const q = `SELECT u.username, s.title, a.action, a.time
	           FROM playlist_song_activities a
	           JOIN users u ON u.id = a.user_id
	           JOIN songs s ON s.id = a.song_id
	           WHERE a.playlist_id = ?
	           ORDER BY a.time, a.id`
	rows, err := r.db.QueryContext(ctx, q, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ActivityView{}
	for rows.Next() {
		var v model.ActivityView
		if err := rows.Scan(&v.Username, &v.Title, &v.Action, &v.Time); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
