// Package blob defines storage for generated map images.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpload wraps every failure to persist an image.
	ErrUpload = errors.New("blob: upload failed")
	// ErrNotFound is returned by Download when no object exists at the path.
	ErrNotFound = errors.New("blob: object not found")
)

// Store persists images and serves them from public URLs.
type Store interface {
	// Upload writes data at path and returns its public URL.
	//
	// Postcondition: On failure the returned error wraps ErrUpload.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Download reads the object at path.
	Download(ctx context.Context, path string) ([]byte, error)
	// PathFromURL maps a public URL produced by Upload back to its object path.
	PathFromURL(url string) (string, bool)
}

// MapImagePath returns the object path of a map's background image.
func MapImagePath(campaignID, mapSpecID string) string {
	return fmt.Sprintf("maps/%s/%s.png", campaignID, mapSpecID)
}

// UploadError wraps err with ErrUpload and the object path.
func UploadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpload, path, err)
}

// TrimBaseURL returns url with base and one leading slash removed.
func TrimBaseURL(base, url string) (string, bool) {
	base = strings.TrimRight(base, "/")
	if base == "" || !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	return strings.TrimPrefix(url, base+"/"), true
}
