package repository

import (
	"context"
	"database/sql"
	"errors"
)

// TokenRepo persists the refresh tokens that are currently valid.  Only a
// SHA‑256 hash of each token is stored.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Store records a refresh token hash.  Storing the same hash twice is a no-op.
func (r *TokenRepo) Store(ctx context.Context, userID, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO authentications (token_hash, user_id) VALUES (?,?)",
		tokenHash, userID)
	return err
}

// Exists reports whether tokenHash is a live refresh token.
func (r *TokenRepo) Exists(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM authentications WHERE token_hash=? LIMIT 1", tokenHash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes tokenHash.  It returns ErrTokenNotFound when nothing was removed.
func (r *TokenRepo) Delete(ctx context.Context, tokenHash string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM authentications WHERE token_hash=?", tokenHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
