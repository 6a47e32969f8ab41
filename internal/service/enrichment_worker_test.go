package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"viralpik/internal/models"
	"viralpik/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrichCall struct {
	id         uint
	previewURL string
	dims       models.Dimensions
}

func claimOnce(asset *models.Asset) func(context.Context) (*models.Asset, error) {
	claimed := false
	return func(_ context.Context) (*models.Asset, error) {
		if claimed {
			return nil, nil
		}
		claimed = true
		return asset, nil
	}
}

func TestEnrichmentWorker_RunOnce_EmptyQueue(t *testing.T) {
	t.Parallel()
	w := NewEnrichmentWorker(noopAssetRepo(), newLocalStore(t), 0)
	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestEnrichmentWorker_RunOnce_ClaimError(t *testing.T) {
	t.Parallel()
	repo := noopAssetRepo()
	repo.claimEnrichFn = func(_ context.Context) (*models.Asset, error) { return nil, errors.New("db down") }
	w := NewEnrichmentWorker(repo, newLocalStore(t), 0)
	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestEnrichmentWorker_RasterPreviewFromStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newLocalStore(t)

	previewURL, err := store.Put(ctx, "previews/4/p.png", bytes.NewReader(testutil.PNG(t, 40, 20)), "image/png")
	require.NoError(t, err)

	var got enrichCall
	repo := noopAssetRepo()
	repo.claimEnrichFn = claimOnce(&models.Asset{ID: 9, CreatorID: 4, PreviewURL: previewURL})
	repo.completeEnrichFn = func(_ context.Context, id uint, url string, dims models.Dimensions) error {
		got = enrichCall{id, url, dims}
		return nil
	}

	w := NewEnrichmentWorker(repo, store, time.Millisecond)
	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	assert.Equal(t, uint(9), got.id)
	assert.Contains(t, got.previewURL, "/media/thumbs/4/")
	assert.Equal(t, models.Dimensions{Width: 40, Height: 20}, got.dims)
}

func TestEnrichmentWorker_KeepsKnownDimensions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newLocalStore(t)

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testutil.PNG(t, 8, 8))
	asset := &models.Asset{ID: 9, CreatorID: 4, PreviewURL: dataURL}
	asset.SetDimensions(models.Dimensions{Width: 1280, Height: 720})

	var got enrichCall
	repo := noopAssetRepo()
	repo.claimEnrichFn = claimOnce(asset)
	repo.completeEnrichFn = func(_ context.Context, id uint, url string, dims models.Dimensions) error {
		got = enrichCall{id, url, dims}
		return nil
	}

	_, err := NewEnrichmentWorker(repo, store, 0).RunOnce(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, got.previewURL)
	assert.True(t, got.dims.IsZero())
}

func TestEnrichmentWorker_SVGPreviewFillsDimensions(t *testing.T) {
	t.Parallel()

	dataURL := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svgFixture))
	var got enrichCall
	repo := noopAssetRepo()
	repo.claimEnrichFn = claimOnce(&models.Asset{ID: 3, PreviewURL: dataURL})
	repo.completeEnrichFn = func(_ context.Context, id uint, url string, dims models.Dimensions) error {
		got = enrichCall{id, url, dims}
		return nil
	}

	_, err := NewEnrichmentWorker(repo, newLocalStore(t), 0).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.previewURL)
	assert.Equal(t, models.Dimensions{Width: 1280, Height: 720}, got.dims)
}

func TestEnrichmentWorker_ExternalPreviewIsSkipped(t *testing.T) {
	t.Parallel()

	var completed bool
	repo := noopAssetRepo()
	repo.claimEnrichFn = claimOnce(&models.Asset{ID: 3, PreviewURL: "https://elsewhere.test/p.png"})
	repo.completeEnrichFn = func(_ context.Context, _ uint, url string, dims models.Dimensions) error {
		completed = true
		assert.Empty(t, url)
		assert.True(t, dims.IsZero())
		return nil
	}

	_, err := NewEnrichmentWorker(repo, newLocalStore(t), 0).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestEnrichmentWorker_FailureIsRecorded(t *testing.T) {
	t.Parallel()

	var failedID uint
	var maxAttempts int
	repo := noopAssetRepo()
	repo.claimEnrichFn = claimOnce(&models.Asset{ID: 5, PreviewURL: "data:image/png;base64,%%%"})
	repo.completeEnrichFn = func(_ context.Context, _ uint, _ string, _ models.Dimensions) error {
		t.Error("broken preview must not complete")
		return nil
	}
	repo.failEnrichFn = func(_ context.Context, id uint, n int) error {
		failedID, maxAttempts = id, n
		return nil
	}

	processed, err := NewEnrichmentWorker(repo, newLocalStore(t), 0).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, uint(5), failedID)
	assert.Equal(t, MaxEnrichAttempts, maxAttempts)
}

func TestEnrichmentWorker_StartStopsOnCancel(t *testing.T) {
	t.Parallel()

	claims := make(chan struct{}, 16)
	repo := noopAssetRepo()
	repo.claimEnrichFn = func(_ context.Context) (*models.Asset, error) {
		select {
		case claims <- struct{}{}:
		default:
		}
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	NewEnrichmentWorker(repo, newLocalStore(t), 5*time.Millisecond).Start(ctx)

	select {
	case <-claims:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never polled")
	}
	cancel()
}

func TestSleepContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepContext(ctx, time.Hour))
	assert.True(t, sleepContext(context.Background(), time.Millisecond))
}

func TestLoadPreview_UnsupportedDataURL(t *testing.T) {
	t.Parallel()
	w := NewEnrichmentWorker(noopAssetRepo(), newLocalStore(t), 0)
	_, _, err := w.loadPreview(context.Background(), "data:text/plain,hello")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"))

	_, ok, err := w.loadPreview(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}
