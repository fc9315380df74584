package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// AlbumRepo encapsulates all queries against the albums table.
type AlbumRepo struct{ db *sql.DB }

func NewAlbumRepo(db *sql.DB) *AlbumRepo { return &AlbumRepo{db: db} }

// Create inserts a new album and populates its ID.
func (r *AlbumRepo) Create(ctx context.Context, a *model.Album) error {
	id := newID("album")
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO albums (id, name, year) VALUES (?,?,?)", id, a.Name, a.Year); err != nil {
		return err
	}
	a.ID = id
	return nil
}

// GetByID returns ErrAlbumNotFound when no album has the given id.
func (r *AlbumRepo) GetByID(ctx context.Context, id string) (*model.Album, error) {
	const q = "SELECT id, name, year, cover_url FROM albums WHERE id = ?"
	var (
		a     model.Album
		cover sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.Year, &cover); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}
	if cover.Valid {
		a.CoverURL = &cover.String
	}
	return &a, nil
}

// Update replaces name and year.  It returns ErrAlbumNotFound when no row matched.
func (r *AlbumRepo) Update(ctx context.Context, id, name string, year int) error {
	res, err := r.db.ExecContext(ctx, "UPDATE albums SET name = ?, year = ? WHERE id = ?", name, year, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

// Delete removes the album.  Songs keep existing with album_id set to NULL.
func (r *AlbumRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

// SetCover records the public URL of the album cover.
func (r *AlbumRepo) SetCover(ctx context.Context, id, coverURL string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE albums SET cover_url = ? WHERE id = ?", coverURL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlbumNotFound
	}
	return nil
}
