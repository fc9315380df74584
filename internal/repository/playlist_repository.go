package repository

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// PlaylistRepo is the playlist store.  Ownership is a plain column; access
// decisions are made by the authorization engine, never here.
type PlaylistRepo struct{ db *sql.DB }

func NewPlaylistRepo(db *sql.DB) *PlaylistRepo { return &PlaylistRepo{db: db} }

// Create inserts p and populates its ID.
func (r *PlaylistRepo) Create(ctx context.Context, p *model.Playlist) error {
	id := newID("playlist")
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO playlists (id, name, owner) VALUES (?,?,?)", id, p.Name, p.Owner); err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetByID returns ErrPlaylistNotFound when the playlist does not exist.
func (r *PlaylistRepo) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, owner FROM playlists WHERE id = ?", id).Scan(&p.ID, &p.Name, &p.Owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns the playlists owned by ownerID.
func (r *PlaylistRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Playlist, error) {
	return r.query(ctx, "SELECT id, name, owner FROM playlists WHERE owner = ? ORDER BY id", ownerID)
}

// FindByIDs returns the playlists with the given ids.  Unknown ids are skipped.
func (r *PlaylistRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Playlist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sq.Select("id", "name", "owner").
		From("playlists").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, q, args...)
}

func (r *PlaylistRepo) query(ctx context.Context, q string, args ...any) ([]model.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Playlist
	for rows.Next() {
		var p model.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Owner); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a playlist together with its activities, songs and
// collaborations inside one transaction, and returns the deleted row.  The
// foreign keys cascade as well; the explicit deletes keep the behaviour the
// same on schemas created without them.  ErrPlaylistNotFound is returned
// when the playlist does not exist.
func (r *PlaylistRepo) Delete(ctx context.Context, id string) (deleted *model.Playlist, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var p model.Playlist
	if err = tx.QueryRowContext(ctx,
		"SELECT id, name, owner FROM playlists WHERE id = ? FOR UPDATE", id).
		Scan(&p.ID, &p.Name, &p.Owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrPlaylistNotFound
		}
		return nil, err
	}

	for _, q := range []string{
		"DELETE FROM playlist_song_activities WHERE playlist_id = ?",
		"DELETE FROM playlist_songs WHERE playlist_id = ?",
		"DELETE FROM collaborations WHERE playlist_id = ?",
		"DELETE FROM playlists WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}
