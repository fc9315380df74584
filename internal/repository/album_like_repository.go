package repository

import (
	"context"
	"database/sql"
	"errors"
)

// AlbumLikeRepo stores which users like which albums.
type AlbumLikeRepo struct{ db *sql.DB }

func NewAlbumLikeRepo(db *sql.DB) *AlbumLikeRepo { return &AlbumLikeRepo{db: db} }

// Exists reports whether userID likes albumID.
func (r *AlbumLikeRepo) Exists(ctx context.Context, userID, albumID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM user_album_likes WHERE user_id = ? AND album_id = ? LIMIT 1",
		userID, albumID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Add records a like.  ErrDuplicate is returned when it already exists.
func (r *AlbumLikeRepo) Add(ctx context.Context, userID, albumID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_album_likes (id, user_id, album_id) VALUES (?,?,?)",
		newID("like"), userID, albumID)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// Remove deletes a like.  ErrLikeNotFound is returned when there was none.
func (r *AlbumLikeRepo) Remove(ctx context.Context, userID, albumID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_album_likes WHERE user_id = ? AND album_id = ?", userID, albumID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLikeNotFound
	}
	return nil
}

// Count returns how many users like albumID.
func (r *AlbumLikeRepo) Count(ctx context.Context, albumID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_album_likes WHERE album_id = ?", albumID).Scan(&n)
	return n, err
}
