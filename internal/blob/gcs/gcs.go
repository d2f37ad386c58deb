// Package gcs stores map images in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/cory-johannsen/mapseed/internal/blob"
)

const publicHost = "https://storage.googleapis.com"

// Store implements blob.Store on a GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a Store for bucket. credentialsFile may be empty to use
// application default credentials.
//
// Precondition: bucket must be non-empty.
// Postcondition: Returns a Store or a non-nil error.
func New(ctx context.Context, bucket, credentialsFile string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("gcs blob store requires a bucket")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Upload writes data to the bucket and returns its public URL.
func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", blob.UploadError(path, err)
	}
	if err := w.Close(); err != nil {
		return "", blob.UploadError(path, err)
	}
	return s.baseURL() + "/" + path, nil
}

// Download reads the object at path.
func (s *Store) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", path, err)
	}
	return data, nil
}

// PathFromURL strips the bucket's public URL prefix.
func (s *Store) PathFromURL(url string) (string, bool) {
	return blob.TrimBaseURL(s.baseURL(), url)
}

// Close releases the storage client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) baseURL() string {
	return publicHost + "/" + s.bucket
}
