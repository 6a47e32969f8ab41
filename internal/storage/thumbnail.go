package storage

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	"viralpik/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	ThumbnailMaxSize = 640
	WebPQuality      = 70
)

// Thumbnail decodes a raster image, scales it to fit ThumbnailMaxSize and
// encodes it as WebP. It also returns the source dimensions.
func Thumbnail(data []byte) ([]byte, models.Dimensions, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.Dimensions{}, err
	}
	b := src.Bounds()
	dims := models.Dimensions{Width: b.Dx(), Height: b.Dy()}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resizeToFit(src, ThumbnailMaxSize, ThumbnailMaxSize), &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, dims, err
	}
	return buf.Bytes(), dims, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// IsRaster reports whether contentType is a decodable raster image.
func IsRaster(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
