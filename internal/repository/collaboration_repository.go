package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// CollaborationRepo stores which users collaborate on which playlists.  A
// (playlist, user) pair is stored at most once.
type CollaborationRepo struct{ db *sql.DB }

func NewCollaborationRepo(db *sql.DB) *CollaborationRepo { return &CollaborationRepo{db: db} }

// Add grants userID access to playlistID.  When the grant already exists it
// is returned unchanged and created is false.
func (r *CollaborationRepo) Add(ctx context.Context, playlistID, userID string) (c *model.Collaboration, created bool, err error) {
	if c, err = r.find(ctx, playlistID, userID); err == nil {
		return c, false, nil
	} else if !errors.Is(err, ErrCollaborationNotFound) {
		return nil, false, err
	}

	id := newID("collab")
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO collaborations (id, playlist_id, user_id) VALUES (?,?,?)", id, playlistID, userID)
	if err != nil {
		if isDuplicate(err) {
			// lost a race against a concurrent invite of the same user
			c, err = r.find(ctx, playlistID, userID)
			return c, false, err
		}
		return nil, false, err
	}
	return &model.Collaboration{ID: id, PlaylistID: playlistID, UserID: userID}, true, nil
}

// Remove revokes the grant and returns it.  ErrCollaborationNotFound is
// returned when there was nothing to revoke.
func (r *CollaborationRepo) Remove(ctx context.Context, playlistID, userID string) (*model.Collaboration, error) {
	c, err := r.find(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM collaborations WHERE id = ?", c.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrCollaborationNotFound
	}
	return c, nil
}

func (r *CollaborationRepo) find(ctx context.Context, playlistID, userID string) (*model.Collaboration, error) {
	var c model.Collaboration
	err := r.db.QueryRowContext(ctx,
		"SELECT id, playlist_id, user_id FROM collaborations WHERE playlist_id = ? AND user_id = ?",
		playlistID, userID).Scan(&c.ID, &c.PlaylistID, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCollaborationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UserIDsByPlaylist lists the collaborators of a playlist.  The result is
// empty, never an error, when there are none.
func (r *CollaborationRepo) UserIDsByPlaylist(ctx context.Context, playlistID string) ([]string, error) {
	return r.strings(ctx, "SELECT user_id FROM collaborations WHERE playlist_id = ? ORDER BY id", playlistID)
}

// PlaylistIDsByUser lists the playlists userID collaborates on.
func (r *CollaborationRepo) PlaylistIDsByUser(ctx context.Context, userID string) ([]string, error) {
	return r.strings(ctx, "SELECT playlist_id FROM collaborations WHERE user_id = ? ORDER BY id", userID)
}

func (r *CollaborationRepo) strings(ctx context.Context, q string, arg string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
