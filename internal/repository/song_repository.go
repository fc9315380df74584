package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// SongRepo is the song catalog store.  Listing and partial updates are built
// with squirrel since their WHERE and SET clauses depend on the request.
type SongRepo struct{ db *sql.DB }

func NewSongRepo(db *sql.DB) *SongRepo { return &SongRepo{db: db} }

var songColumns = []string{"id", "title", "year", "performer", "genre", "duration", "album_id"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(s rowScanner) (*model.Song, error) {
	var (
		song     model.Song
		duration sql.NullInt64
		albumID  sql.NullString
	)
	if err := s.Scan(&song.ID, &song.Title, &song.Year, &song.Performer, &song.Genre, &duration, &albumID); err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		song.Duration = &d
	}
	if albumID.Valid {
		song.AlbumID = &albumID.String
	}
	return &song, nil
}

// Create inserts s and populates its ID.
func (r *SongRepo) Create(ctx context.Context, s *model.Song) error {
	id := newID("song")
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO songs (id, title, year, performer, genre, duration, album_id) VALUES (?,?,?,?,?,?,?)",
		id, s.Title, s.Year, s.Performer, s.Genre, s.Duration, s.AlbumID)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// GetByID returns ErrSongNotFound when no song has the given id.
func (r *SongRepo) GetByID(ctx context.Context, id string) (*model.Song, error) {
	q, args, err := sq.Select(songColumns...).From("songs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanSong(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	return s, err
}

// Replace overwrites every column of the song with s.ID.  A nil Duration or
// AlbumID is written as NULL.
func (r *SongRepo) Replace(ctx context.Context, s *model.Song) error {
	set := map[string]any{
		"title":     s.Title,
		"year":      s.Year,
		"performer": s.Performer,
		"genre":     s.Genre,
		"duration":  s.Duration,
		"album_id":  s.AlbumID,
	}
	q, args, err := sq.Update("songs").SetMap(set).Where(sq.Eq{"id": s.ID}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSongNotFound
	}
	return nil
}

// Delete removes a song; playlist entries referencing it cascade.
func (r *SongRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSongNotFound
	}
	return nil
}

// List returns every song in summary form.
func (r *SongRepo) List(ctx context.Context) ([]model.SongSummary, error) {
	return r.Search(ctx, model.SongQuery{})
}

// Search filters songs by case-insensitive substring on title and performer.
// Both filters apply when both are set.
func (r *SongRepo) Search(ctx context.Context, f model.SongQuery) ([]model.SongSummary, error) {
	b := sq.Select("id", "title", "performer").From("songs").OrderBy("title", "id")
	if f.Title != "" {
		b = b.Where(sq.Like{"LOWER(title)": "%" + lowerLike(f.Title) + "%"})
	}
	if f.Performer != "" {
		b = b.Where(sq.Like{"LOWER(performer)": "%" + lowerLike(f.Performer) + "%"})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return r.querySummaries(ctx, q, args...)
}

// ListByAlbum returns the songs of an album.
func (r *SongRepo) ListByAlbum(ctx context.Context, albumID string) ([]model.SongSummary, error) {
	return r.querySummaries(ctx,
		"SELECT id, title, performer FROM songs WHERE album_id = ? ORDER BY title, id", albumID)
}

// ListByPlaylist returns the songs of a playlist in insertion order.
func (r *SongRepo) ListByPlaylist(ctx context.Context, playlistID string) ([]model.SongSummary, error) {
	const q = `SELECT s.id, s.title, s.performer
	           FROM playlist_songs ps
	           JOIN songs s ON s.id = ps.song_id
	           WHERE ps.playlist_id = ?
	           ORDER BY ps.id`
	return r.querySummaries(ctx, q, playlistID)
}

func (r *SongRepo) querySummaries(ctx context.Context, q string, args ...any) ([]model.SongSummary, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SongSummary{}
	for rows.Next() {
		var s model.SongSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Performer); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// lowerLike lowercases a search term and escapes LIKE wildcards in it.
func lowerLike(term string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term)))
}
