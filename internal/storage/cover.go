// Package storage keeps uploaded album covers on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iliyamo/openmusic-api/internal/apperror"
)

// DefaultMaxBytes is the largest cover accepted when none is configured.
const DefaultMaxBytes = 512000

var coverExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// CoverStore writes covers as <albumId>-cover.<ext> under Dir.  A new upload
// replaces the previous cover of the same album.
type CoverStore struct {
	dir      string
	maxBytes int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoverStore(dir string, maxBytes int64) (*CoverStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover dir: %w", err)
	}
	return &CoverStore{dir: dir, maxBytes: maxBytes, locks: map[string]*sync.Mutex{}}, nil
}

// Dir is where covers are stored; the router serves it as static files.
func (s *CoverStore) Dir() string { return s.dir }

// Save validates and stores a cover and returns its file name.
func (s *CoverStore) Save(ctx context.Context, albumID, contentType string, r io.Reader) (string, error) {
	ext, err := extensionFor(contentType)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(albumID, `/\`) || albumID == "" {
		return "", apperror.BadRequest("invalid album id")
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", apperror.Server("create temp cover", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", apperror.Server("write cover", err)
	}
	if n > s.maxBytes {
		return "", apperror.PayloadTooLarge(fmt.Sprintf("Cover must not exceed %d bytes", s.maxBytes))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := albumID + "-cover" + ext
	lock := s.lockFor(albumID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.removeOthers(albumID, name); err != nil {
		return "", apperror.Server("replace cover", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", apperror.Server("store cover", err)
	}
	log.Printf("storage: cover %s stored (%d bytes)", name, n)
	return name, nil
}

// removeOthers drops covers of the album stored under another extension.
func (s *CoverStore) removeOthers(albumID, keep string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, albumID+"-cover.*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if filepath.Base(m) == keep {
			continue
		}
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *CoverStore) lockFor(albumID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[albumID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[albumID] = l
	}
	return l
}

func extensionFor(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return "", apperror.BadRequest("Cover must be an image")
	}
	if ext, ok := coverExt[mt]; ok {
		return ext, nil
	}
	if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
		return exts[0], nil
	}
	return "." + strings.TrimPrefix(mt, "image/"), nil
}
