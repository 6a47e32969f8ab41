package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"viralpik/internal/storage"
	"viralpik/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080"+storage.MediaPrefix)
	require.NoError(t, err)
	return store
}

func readObject(t *testing.T, store storage.ObjectStore, url string) []byte {
	t.Helper()
	key, ok := store.KeyForURL(url)
	require.True(t, ok, url)
	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

const svgFixture = `<svg xmlns="http://www.w3.org/2000/svg" width="1280" height="720"><rect width="10" height="10"/></svg>`

func TestUploadService_Upload_Rejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewUploadService(newLocalStore(t), 1)

	cases := map[string]UploadInput{
		"unsupported extension": {UserID: 1, Filename: "notes.txt", Data: []byte("x")},
		"empty file":            {UserID: 1, Filename: "a.svg"},
		"too large":             {UserID: 1, Filename: "a.zip", Data: make([]byte, 1<<20+1)},
		"raster content lies":   {UserID: 1, Filename: "a.png", Data: []byte("definitely not a png")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Upload(ctx, in)
			assertValidationError(t, err)
		})
	}
}

func TestUploadService_Upload_SVGStoredAsAsset(t *testing.T) {
	t.Parallel()
	store := newLocalStore(t)
	svc := NewUploadService(store, 0)
	assert.Equal(t, int64(200<<20), svc.MaxBytes())

	res, err := svc.Upload(context.Background(), UploadInput{
		UserID:   4,
		Filename: `C:\Users\me\Desktop\overlay.SVG`,
		Data:     []byte(svgFixture),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.AssetURL, "http://localhost:8080/media/assets/4/"), res.AssetURL)
	assert.True(t, strings.HasSuffix(res.AssetURL, ".svg"), res.AssetURL)
	assert.Empty(t, res.ThumbnailURL)
	assert.Equal(t, []byte(svgFixture), readObject(t, store, res.AssetURL))
}

func TestUploadService_Upload_RasterGetsThumbnail(t *testing.T) {
	t.Parallel()
	store := newLocalStore(t)
	svc := NewUploadService(store, 5)

	res, err := svc.Upload(context.Background(), UploadInput{
		UserID:   4,
		Filename: "preview.png",
		Data:     testutil.PNG(t, 64, 32),
	})
	require.NoError(t, err)
	assert.Contains(t, res.AssetURL, "/media/previews/4/")
	assert.Contains(t, res.ThumbnailURL, "/media/thumbs/4/")
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 32, res.Height)

	thumb := readObject(t, store, res.ThumbnailURL)
	assert.Equal(t, "RIFF", string(thumb[:4]))
}
