// Package storage persists uploaded asset files and previews in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"viralpik/internal/config"
	"viralpik/internal/observability"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore is the blob store behind /api/upload.
type ObjectStore interface {
	// Put stores r under key and returns the public URL of the object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// KeyForURL maps a URL returned by Put back to its key.
	KeyForURL(url string) (string, bool)
	Backend() string
}

// New builds the object store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	var (
		store ObjectStore
		err   error
	)
	switch cfg.StorageBackend {
	case "gcs":
		store, err = NewGCSStore(ctx, GCSOptions{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
			EmulatorHost:    cfg.GCSEmulatorHost,
			PublicBaseURL:   cfg.StoragePublicBase,
		})
	default:
		base := cfg.StoragePublicBase
		if base == "" {
			base = cfg.PublicBaseURL + MediaPrefix
		}
		store, err = NewLocalStore(cfg.UploadDir, base)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(store), nil
}

// ObjectKey builds a collision-free key for an upload. The extension of
// filename is kept so content types survive round trips.
func ObjectKey(kind string, userID uint, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d/%s%s", kind, userID, uuid.NewString(), ext)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	return path.Clean(key) == key && !strings.HasPrefix(key, "..")
}

type instrumented struct {
	ObjectStore
}

// Instrument wraps a store with tracing spans and upload size metrics.
func Instrument(s ObjectStore) ObjectStore {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{ObjectStore: s}
}

func (s *instrumented) Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error) {
	ctx, span := observability.StartStorageSpan(ctx, s.Backend(), "put", key)
	defer observability.EndSpan(span, &err)

	cr := &countingReader{r: r}
	url, err = s.ObjectStore.Put(ctx, key, cr, contentType)
	if err != nil {
		return "", err
	}
	observability.UploadBytes.WithLabelValues(s.Backend()).Observe(float64(cr.n))
	return url, nil
}

func (s *instrumented) Open(ctx context.Context, key string) (rc io.ReadCloser, err error) {
	ctx, span := observability.StartStorageSpan(ctx, s.Backend(), "open", key)
	defer observability.EndSpan(span, &err)
	return s.ObjectStore.Open(ctx, key)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
