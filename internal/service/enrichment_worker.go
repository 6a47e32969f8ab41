package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"viralpik/internal/models"
	"viralpik/internal/observability"
	"viralpik/internal/repository"
	"viralpik/internal/storage"
	"viralpik/internal/submission"

	"go.opentelemetry.io/otel/codes"
)

// MaxEnrichAttempts is how often a failing asset is retried before it is marked failed.
const MaxEnrichAttempts = 3

const maxPreviewBytes = 32 << 20

// EnrichmentWorker regenerates preview thumbnails and fills missing
// dimensions for assets queued through the enrich endpoint.
type EnrichmentWorker struct {
	assetRepo repository.AssetRepository
	store     storage.ObjectStore
	idle      time.Duration
}

func NewEnrichmentWorker(assetRepo repository.AssetRepository, store storage.ObjectStore, idle time.Duration) *EnrichmentWorker {
	if idle <= 0 {
		idle = 5 * time.Second
	}
	return &EnrichmentWorker{assetRepo: assetRepo, store: store, idle: idle}
}

// Start runs the worker loop until ctx is cancelled.
func (w *EnrichmentWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *EnrichmentWorker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := w.RunOnce(ctx)
		if err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "enrichment claim failed", slog.String("error", err.Error()))
			if !sleepContext(ctx, time.Second) {
				return
			}
			continue
		}
		if !processed && !sleepContext(ctx, w.idle) {
			return
		}
	}
}

// RunOnce claims and processes one queued asset. It reports whether an
// asset was claimed.
func (w *EnrichmentWorker) RunOnce(ctx context.Context) (bool, error) {
	asset, err := w.assetRepo.ClaimNextEnrichment(ctx)
	if err != nil {
		return false, err
	}
	if asset == nil {
		return false, nil
	}

	jobCtx, span := observability.StartJobSpan(ctx, "enrichment", asset.ID)
	defer span.End()

	if err := w.process(jobCtx, asset); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.EnrichmentJobs.WithLabelValues("error").Inc()
		observability.GlobalLogger.WarnContext(jobCtx, "enrichment failed",
			slog.Uint64("asset_id", uint64(asset.ID)),
			slog.Int("attempt", asset.EnrichAttempts),
			slog.String("error", err.Error()),
		)
		if ferr := w.assetRepo.FailEnrichment(jobCtx, asset.ID, MaxEnrichAttempts); ferr != nil {
			observability.GlobalLogger.ErrorContext(jobCtx, "failed to record enrichment failure",
				slog.Uint64("asset_id", uint64(asset.ID)),
				slog.String("error", ferr.Error()),
			)
		}
		return true, nil
	}
	observability.EnrichmentJobs.WithLabelValues("ok").Inc()
	return true, nil
}

func (w *EnrichmentWorker) process(ctx context.Context, asset *models.Asset) error {
	data, ok, err := w.loadPreview(ctx, asset.PreviewURL)
	if err != nil {
		return err
	}
	if !ok {
		return w.assetRepo.CompleteEnrichment(ctx, asset.ID, "", models.Dimensions{})
	}

	if storage.IsRaster(http.DetectContentType(data)) {
		thumb, dims, err := storage.Thumbnail(data)
		if err != nil {
			return err
		}
		url, err := w.store.Put(ctx, storage.ObjectKey("thumbs", asset.CreatorID, "thumb.webp"), bytes.NewReader(thumb), "image/webp")
		if err != nil {
			return err
		}
		if _, known := asset.Dimensions(); known {
			dims = models.Dimensions{}
		}
		return w.assetRepo.CompleteEnrichment(ctx, asset.ID, url, dims)
	}

	var dims models.Dimensions
	if _, known := asset.Dimensions(); !known {
		dims, _ = submission.SVGSize(data)
	}
	return w.assetRepo.CompleteEnrichment(ctx, asset.ID, "", dims)
}

// loadPreview reads the preview from a data URL or the object store. URLs
// outside the store are left alone.
func (w *EnrichmentWorker) loadPreview(ctx context.Context, previewURL string) ([]byte, bool, error) {
	if previewURL == "" {
		return nil, false, nil
	}
	if strings.HasPrefix(previewURL, "data:") {
		comma := strings.IndexByte(previewURL, ',')
		if comma < 0 || !strings.Contains(previewURL[:comma], ";base64") {
			return nil, false, errors.New("unsupported data URL")
		}
		data, err := base64.StdEncoding.DecodeString(previewURL[comma+1:])
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}

	key, ok := w.store.KeyForURL(previewURL)
	if !ok {
		return nil, false, nil
	}
	rc, err := w.store.Open(ctx, key)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPreviewBytes))
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
