package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/iliyamo/openmusic-api/internal/model"
)

// PlaylistReader is the playlist lookup the exporter needs.
type PlaylistReader interface {
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
}

// PlaylistSongLister lists a playlist's songs.
type PlaylistSongLister interface {
	ListByPlaylist(ctx context.Context, playlistID string) ([]model.SongSummary, error)
}

// ExportDocument is the JSON written for one export.
type ExportDocument struct {
	TargetEmail string         `json:"targetEmail"`
	ExportedAt  time.Time      `json:"exportedAt"`
	Playlist    ExportPlaylist `json:"playlist"`
}

// ExportPlaylist is the playlist part of an ExportDocument.
type ExportPlaylist struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Songs []model.SongSummary `json:"songs"`
}

// FileExporter writes each export as <dir>/<playlistId>-<unix ms>.json.
type FileExporter struct {
	Dir       string
	Playlists PlaylistReader
	Songs     PlaylistSongLister
	Now       func() time.Time
}

// Export loads the playlist and its songs and writes the document.  The file
// is written under a temporary name and renamed, so readers never see a
// partial export.
func (x *FileExporter) Export(ctx context.Context, ev PlaylistExportRequested) error {
	p, err := x.Playlists.GetByID(ctx, ev.PlaylistID)
	if err != nil {
		return err
	}
	songs, err := x.Songs.ListByPlaylist(ctx, ev.PlaylistID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if x.Now != nil {
		now = x.Now()
	}
	doc := ExportDocument{
		TargetEmail: ev.TargetEmail,
		ExportedAt:  now,
		Playlist:    ExportPlaylist{ID: p.ID, Name: p.Name, Songs: songs},
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(x.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", x.Dir, err)
	}
	final := filepath.Join(x.Dir, fmt.Sprintf("%s-%d.json", p.ID, now.UnixMilli()))
	tmp, err := os.CreateTemp(x.Dir, ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return err
	}
	log.Printf("export-consumer: exported playlist %s for %s to %s", p.ID, ev.TargetEmail, final)
	return nil
}
