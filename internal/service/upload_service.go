package service

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"strings"

	"viralpik/internal/models"
	"viralpik/internal/storage"
	"viralpik/internal/submission"
)

// previewExtensions are raster formats accepted as previews only.
var previewExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// UploadService stores uploaded files and derives WebP thumbnails for raster images.
type UploadService struct {
	store    storage.ObjectStore
	maxBytes int64
}

type UploadInput struct {
	UserID   uint
	Filename string
	Data     []byte
}

// UploadResult is the stored location of an upload.
type UploadResult struct {
	AssetURL     string `json:"assetUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

func NewUploadService(store storage.ObjectStore, maxUploadMB int) *UploadService {
	if maxUploadMB <= 0 {
		maxUploadMB = 200
	}
	return &UploadService{store: store, maxBytes: int64(maxUploadMB) << 20}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

func contentTypeFor(ext string, data []byte) string {
	if ct, ok := previewExtensions[ext]; ok {
		return ct
	}
	switch ext {
	case "svg":
		return "image/svg+xml"
	case "psd":
		return "image/vnd.adobe.photoshop"
	case "mp4":
		return "video/mp4"
	case "zip":
		return "application/zip"
	}
	return http.DetectContentType(data)
}

func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	name := path.Base(strings.ReplaceAll(in.Filename, `\`, "/"))
	ext := submission.Extension(name)
	_, raster := previewExtensions[ext]
	if !submission.Allowed(ext) && !raster {
		return nil, models.NewValidationError(submission.ReasonUnsupportedType)
	}
	if len(in.Data) == 0 {
		return nil, models.NewValidationError(submission.ReasonEmptyFile)
	}
	if int64(len(in.Data)) > s.maxBytes {
		return nil, models.NewValidationError("file exceeds the upload size limit")
	}

	contentType := contentTypeFor(ext, in.Data)
	if raster && !storage.IsRaster(http.DetectContentType(in.Data)) {
		return nil, models.NewValidationError("file content does not match its extension")
	}

	kind := "assets"
	if raster {
		kind = "previews"
	}
	assetURL, err := s.store.Put(ctx, storage.ObjectKey(kind, in.UserID, name), bytes.NewReader(in.Data), contentType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	res := &UploadResult{AssetURL: assetURL}
	if !raster {
		return res, nil
	}

	thumb, dims, err := storage.Thumbnail(in.Data)
	if err != nil {
		return nil, models.NewValidationError("image could not be decoded")
	}
	thumbURL, err := s.store.Put(ctx, storage.ObjectKey("thumbs", in.UserID, "thumb.webp"), bytes.NewReader(thumb), "image/webp")
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	res.ThumbnailURL = thumbURL
	res.Width, res.Height = dims.Width, dims.Height
	return res, nil
}
