// Package filesystem stores map images in a local directory served from a
// configured base URL. Intended for development.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cory-johannsen/mapseed/internal/blob"
)

// Store implements blob.Store on the local filesystem.
type Store struct {
	dir     string
	baseURL string
}

// New creates a Store rooted at dir.
//
// Precondition: dir and baseURL must be non-empty.
func New(dir, baseURL string) (*Store, error) {
	if dir == "" || baseURL == "" {
		return nil, errors.New("filesystem blob store requires a directory and a base URL")
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes the store root", path)
	}
	return filepath.Join(s.dir, clean), nil
}

// Upload writes data under the store root via a temp file and rename.
func (s *Store) Upload(ctx context.Context, path string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", blob.UploadError(path, err)
	}
	full, err := s.resolve(path)
	if err != nil {
		return "", blob.UploadError(path, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", blob.UploadError(path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", blob.UploadError(path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", blob.UploadError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", blob.UploadError(path, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", blob.UploadError(path, err)
	}
	return s.baseURL + "/" + filepath.ToSlash(filepath.Clean(filepath.FromSlash(path))), nil
}

// Download reads the object at path.
func (s *Store) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", path, err)
	}
	return data, nil
}

// PathFromURL strips the configured base URL.
func (s *Store) PathFromURL(url string) (string, bool) {
	return blob.TrimBaseURL(s.baseURL, url)
}
