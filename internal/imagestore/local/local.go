// Package local stores illustrations as files in one directory. Keys are a
// random UUID plus an extension that records the image type.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vbonduro/eatai/internal/domain"
	"github.com/vbonduro/eatai/internal/imagestore"
)

var extByMime = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type LocalImageStore struct {
	dir string
}

var _ imagestore.ImageStore = (*LocalImageStore)(nil)

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create illustration directory: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

// Save writes r to a temporary file and renames it into place, so a key is
// never visible before its file is complete. Unknown types are stored as PNG.
func (s *LocalImageStore) Save(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	ext, ok := extByMime[mimeType]
	if !ok {
		ext = ".png"
	}
	key := uuid.NewString() + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write illustration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return "", fmt.Errorf("failed to store illustration: %w", err)
	}
	return key, nil
}

// Get accepts only keys Save could have produced; anything else, including
// path tricks, is reported as not found.
func (s *LocalImageStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	mimeType, ok := parseKey(key)
	if !ok {
		return nil, "", fmt.Errorf("illustration %q: %w", key, domain.ErrNotFound)
	}

	f, err := os.Open(filepath.Join(s.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("illustration %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open illustration: %w", err)
	}
	return f, mimeType, nil
}

func parseKey(key string) (mimeType string, ok bool) {
	ext := filepath.Ext(key)
	if _, err := uuid.Parse(strings.TrimSuffix(key, ext)); err != nil {
		return "", false
	}
	for m, e := range extByMime {
		if e == ext {
			return m, true
		}
	}
	return "", false
}
