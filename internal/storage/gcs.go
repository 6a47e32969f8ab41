package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions configures the Cloud Storage backend.
type GCSOptions struct {
	Bucket          string
	CredentialsFile string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost  string
	PublicBaseURL string
}

// GCSStore stores objects in a single Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewGCSStore(ctx context.Context, opts GCSOptions) (*GCSStore, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: gcs bucket is required")
	}

	var clientOpts []option.ClientOption
	emulator := strings.TrimRight(strings.TrimSpace(opts.EmulatorHost), "/")
	switch {
	case emulator != "":
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulator)
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	clientOpts = append(clientOpts, option.WithScopes(storage.ScopeReadWrite))

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return newGCSStore(client, opts.Bucket, opts.PublicBaseURL, emulator), nil
}

func newGCSStore(client *storage.Client, bucket, publicBase, emulator string) *GCSStore {
	base := strings.TrimRight(publicBase, "/")
	if base == "" {
		if emulator != "" {
			base = emulator + "/" + bucket
		} else {
			base = "https://storage.googleapis.com/" + bucket
		}
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: base}
}

func (s *GCSStore) Backend() string { return "gcs" }

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %s to gcs: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: close gcs writer: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) KeyForURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || !validKey(key) {
		return "", false
	}
	return key, true
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
