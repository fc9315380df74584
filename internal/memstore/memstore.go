// Package memstore is an in-memory implementation of the store ports, used
// by the service and handler tests.
package memstore

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/openmusic-api/internal/model"
	"github.com/iliyamo/openmusic-api/internal/queue"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

// DB is an in-memory store of record.  Each wrapper type below exposes
// one repository's method set over the same data, with the same sentinel
// errors the MySQL repositories return.
type DB struct {
	mu            sync.Mutex
	seq           int
	users         map[string]model.User
	tokens        map[string]string
	albums        map[string]model.Album
	songs         map[string]model.Song
	playlists     map[string]model.Playlist
	collabs       []model.Collaboration
	playlistSongs []model.PlaylistSong
	activities    []model.Activity
	likes         map[[2]string]bool
}

func New() *DB {
	return &DB{
		users:     map[string]model.User{},
		tokens:    map[string]string{},
		albums:    map[string]model.Album{},
		songs:     map[string]model.Song{},
		playlists: map[string]model.Playlist{},
		likes:     map[[2]string]bool{},
	}
}

func (m *DB) id(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

type Users struct{ *DB }

func (s Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if x.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	u.ID = s.id("user")
	s.users[u.ID] = *u
	return nil
}

func (s Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s Users) GetManyByIDs(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)
	return err == nil, nil
}

type Tokens struct{ *DB }

func (s Tokens) Store(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[hash] = userID
	return nil
}

func (s Tokens) Exists(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[hash]
	return ok, nil
}

func (s Tokens) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[hash]; !ok {
		return repository.ErrTokenNotFound
	}
	delete(s.tokens, hash)
	return nil
}

type Albums struct{ *DB }

func (s Albums) Create(_ context.Context, a *model.Album) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id("album")
	s.albums[a.ID] = *a
	return nil
}

func (s Albums) GetByID(_ context.Context, id string) (*model.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.albums[id]
	if !ok {
		return nil, repository.ErrAlbumNotFound
	}
	return &a, nil
}

func (s Albums) Update(_ context.Context, id, name string, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.albums[id]
	if !ok {
		return repository.ErrAlbumNotFound
	}
	a.Name, a.Year = name, year
	s.albums[id] = a
	return nil
}

func (s Albums) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.albums[id]; !ok {
		return repository.ErrAlbumNotFound
	}
	delete(s.albums, id)
	for sid, song := range s.songs {
		if song.AlbumID != nil && *song.AlbumID == id {
			song.AlbumID = nil
			s.songs[sid] = song
		}
	}
	return nil
}

func (s Albums) SetCover(_ context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.albums[id]
	if !ok {
		return repository.ErrAlbumNotFound
	}
	a.CoverURL = &url
	s.albums[id] = a
	return nil
}

type Songs struct{ *DB }

func (s Songs) Create(_ context.Context, song *model.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	song.ID = s.id("song")
	s.songs[song.ID] = *song
	return nil
}

func (s Songs) GetByID(_ context.Context, id string) (*model.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.songs[id]
	if !ok {
		return nil, repository.ErrSongNotFound
	}
	return &song, nil
}

func (s Songs) Replace(_ context.Context, song *model.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.songs[song.ID]; !ok {
		return repository.ErrSongNotFound
	}
	s.songs[song.ID] = *song
	return nil
}

func (s Songs) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.songs[id]; !ok {
		return repository.ErrSongNotFound
	}
	delete(s.songs, id)
	s.playlistSongs = slices.DeleteFunc(s.playlistSongs, func(ps model.PlaylistSong) bool { return ps.SongID == id })
	return nil
}

func (s Songs) List(ctx context.Context) ([]model.SongSummary, error) {
	return s.Search(ctx, model.SongQuery{})
}

func (s Songs) Search(_ context.Context, q model.SongQuery) ([]model.SongSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SongSummary{}
	for _, song := range s.songs {
		if q.Title != "" && !strings.Contains(strings.ToLower(song.Title), strings.ToLower(q.Title)) {
			continue
		}
		if q.Performer != "" && !strings.Contains(strings.ToLower(song.Performer), strings.ToLower(q.Performer)) {
			continue
		}
		out = append(out, song.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s Songs) ListByAlbum(_ context.Context, albumID string) ([]model.SongSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SongSummary{}
	for _, song := range s.songs {
		if song.AlbumID != nil && *song.AlbumID == albumID {
			out = append(out, song.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s Songs) ListByPlaylist(_ context.Context, playlistID string) ([]model.SongSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SongSummary{}
	for _, ps := range s.playlistSongs {
		if ps.PlaylistID == playlistID {
			out = append(out, s.songs[ps.SongID].Summary())
		}
	}
	return out, nil
}

type Playlists struct{ *DB }

func (s Playlists) Create(_ context.Context, p *model.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id("playlist")
	s.playlists[p.ID] = *p
	return nil
}

func (s Playlists) GetByID(_ context.Context, id string) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return nil, repository.ErrPlaylistNotFound
	}
	return &p, nil
}

func (s Playlists) FindByIDs(_ context.Context, ids []string) ([]model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Playlist
	for _, id := range ids {
		if p, ok := s.playlists[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s Playlists) ListByOwner(_ context.Context, owner string) ([]model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Playlist
	for _, p := range s.playlists {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s Playlists) Delete(_ context.Context, id string) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return nil, repository.ErrPlaylistNotFound
	}
	delete(s.playlists, id)
	s.collabs = slices.DeleteFunc(s.collabs, func(c model.Collaboration) bool { return c.PlaylistID == id })
	s.playlistSongs = slices.DeleteFunc(s.playlistSongs, func(ps model.PlaylistSong) bool { return ps.PlaylistID == id })
	s.activities = slices.DeleteFunc(s.activities, func(a model.Activity) bool { return a.PlaylistID == id })
	return &p, nil
}

type Collaborations struct{ *DB }

func (s Collaborations) Add(_ context.Context, playlistID, userID string) (*model.Collaboration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collabs {
		if c.PlaylistID == playlistID && c.UserID == userID {
			return &c, false, nil
		}
	}
	c := model.Collaboration{ID: s.id("collab"), PlaylistID: playlistID, UserID: userID}
	s.collabs = append(s.collabs, c)
	return &c, true, nil
}

func (s Collaborations) Remove(_ context.Context, playlistID, userID string) (*model.Collaboration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.collabs {
		if c.PlaylistID == playlistID && c.UserID == userID {
			s.collabs = slices.Delete(s.collabs, i, i+1)
			return &c, nil
		}
	}
	return nil, repository.ErrCollaborationNotFound
}

func (s Collaborations) UserIDsByPlaylist(_ context.Context, playlistID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.collabs {
		if c.PlaylistID == playlistID {
			out = append(out, c.UserID)
		}
	}
	return out, nil
}

func (s Collaborations) PlaylistIDsByUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.collabs {
		if c.UserID == userID {
			out = append(out, c.PlaylistID)
		}
	}
	return out, nil
}

type PlaylistSongs struct{ *DB }

func (s PlaylistSongs) Add(_ context.Context, playlistID, songID string) (*model.PlaylistSong, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ps := range s.playlistSongs {
		if ps.PlaylistID == playlistID && ps.SongID == songID {
			return nil, repository.ErrDuplicate
		}
	}
	ps := model.PlaylistSong{ID: s.id("ps"), PlaylistID: playlistID, SongID: songID}
	s.playlistSongs = append(s.playlistSongs, ps)
	return &ps, nil
}

func (s PlaylistSongs) Remove(_ context.Context, playlistID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.playlistSongs)
	s.playlistSongs = slices.DeleteFunc(s.playlistSongs, func(ps model.PlaylistSong) bool {
		return ps.PlaylistID == playlistID && ps.SongID == songID
	})
	if len(s.playlistSongs) == n {
		return repository.ErrPlaylistSongNotFound
	}
	return nil
}

func (s PlaylistSongs) Exists(_ context.Context, playlistID, songID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ps := range s.playlistSongs {
		if ps.PlaylistID == playlistID && ps.SongID == songID {
			return true, nil
		}
	}
	return false, nil
}

func (s PlaylistSongs) PlaylistIDsBySong(_ context.Context, songID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ps := range s.playlistSongs {
		if ps.SongID == songID && !slices.Contains(out, ps.PlaylistID) {
			out = append(out, ps.PlaylistID)
		}
	}
	return out, nil
}

type Activities struct{ *DB }

func (s Activities) Append(_ context.Context, a *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id("activity")
	if a.Time.IsZero() {
		a.Time = time.Now().UTC()
	}
	s.activities = append(s.activities, *a)
	return nil
}

func (s Activities) ListByPlaylist(_ context.Context, playlistID string) ([]model.ActivityView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.ActivityView{}
	for _, a := range s.activities {
		if a.PlaylistID == playlistID {
			out = append(out, model.ActivityView{
				Username: s.users[a.UserID].Username,
				Title:    s.songs[a.SongID].Title,
				Action:   a.Action,
				Time:     a.Time,
			})
		}
	}
	return out, nil
}

type Likes struct{ *DB }

func (s Likes) Exists(_ context.Context, userID, albumID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[[2]string{userID, albumID}], nil
}

func (s Likes) Add(_ context.Context, userID, albumID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]string{userID, albumID}
	if s.likes[k] {
		return repository.ErrDuplicate
	}
	s.likes[k] = true
	return nil
}

func (s Likes) Remove(_ context.Context, userID, albumID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]string{userID, albumID}
	if !s.likes[k] {
		return repository.ErrLikeNotFound
	}
	delete(s.likes, k)
	return nil
}

func (s Likes) Count(_ context.Context, albumID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.likes {
		if k[1] == albumID {
			n++
		}
	}
	return n, nil
}

// ExportRecorder collects published export requests.  Err, when set, is
// returned instead.
type ExportRecorder struct {
	Events []queue.PlaylistExportRequested
	Err    error
}

func (q *ExportRecorder) PublishExport(_ context.Context, ev queue.PlaylistExportRequested) error {
	if q.Err != nil {
		return q.Err
	}
	q.Events = append(q.Events, ev)
	return nil
}

// Covers keeps uploaded covers in memory as <albumId>-cover.png.
type Covers struct{ Saved map[string][]byte }

func (m *Covers) Save(_ context.Context, albumID, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.Saved == nil {
		m.Saved = map[string][]byte{}
	}
	name := albumID + "-cover.png"
	m.Saved[name] = b
	return name, nil
}
