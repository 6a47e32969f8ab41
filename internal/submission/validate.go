package submission

import (
	"bytes"
	"encoding/base64"
	"math"
	"path"
	"strings"

	"viralpik/internal/catalog"
	"viralpik/internal/models"
)

// Accepted upload extensions. Bare raster images are refused so multi-image
// uploads arrive zipped.
var allowedExtensions = map[string]bool{
	"psd": true,
	"svg": true,
	"mp4": true,
	"zip": true,
}

// File is a local file picked for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the byte length of the file.
func (f *File) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// Allowed reports whether ext (lowercase, no dot) is an accepted upload type.
func Allowed(ext string) bool {
	return allowedExtensions[ext]
}

// Draft is what the creator filled in.
type Draft struct {
	Title       string
	Description string
	Platform    models.Platform
	AssetType   string
	Tags        []string
	IsFree      bool
	PackPrice   float64
	Main        *File
	Preview     *File
}

// Plan is a validated draft with every derived field resolved.
type Plan struct {
	Format    string
	IsPack    bool
	IsPremium bool
	Price     float64
	Tags      models.Tags
	// PreviewDataURL is set for svg uploads, which preview themselves.
	PreviewDataURL string
}

// CheckFile gates the main file on extension alone.
func CheckFile(f *File) (string, error) {
	if f == nil || f.Name == "" {
		return "", &RejectedError{Reason: ReasonUnsupportedType}
	}
	ext := Extension(f.Name)
	if !allowedExtensions[ext] {
		return "", &RejectedError{Reason: ReasonUnsupportedType}
	}
	if len(f.Data) == 0 {
		return "", &RejectedError{Reason: ReasonEmptyFile}
	}
	return ext, nil
}

// NormalizeTags trims, lowercases and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) models.Tags {
	out := make(models.Tags, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ValidPackPrice reports whether price is inside the pack price range.
func ValidPackPrice(price float64) bool {
	if math.IsNaN(price) {
		return false
	}
	return price >= models.MinPackPrice && price <= models.MaxPackPrice
}

// Validate checks a draft. It returns a *RejectedError for unusable files
// and a *BlockedError for soft gates. cat may be nil to skip catalog checks.
func Validate(d Draft, cat *catalog.Catalog) (*Plan, error) {
	ext, err := CheckFile(d.Main)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Format: ext,
		IsPack: ext == "zip",
		Tags:   NormalizeTags(d.Tags),
	}

	switch {
	case strings.TrimSpace(d.Title) == "":
		return nil, &BlockedError{Reason: ReasonTitleRequired}
	case d.Platform == "":
		return nil, &BlockedError{Reason: ReasonPlatform}
	case strings.TrimSpace(d.AssetType) == "":
		return nil, &BlockedError{Reason: ReasonAssetType}
	}
	if cat != nil {
		if _, ok := cat.Lookup(d.Platform, d.AssetType); !ok {
			return nil, &BlockedError{Reason: ReasonUnknownType}
		}
	}

	if n := len(plan.Tags); n < models.MinTags || n > models.MaxTags {
		return nil, &BlockedError{Reason: ReasonTagCount}
	}

	if ext == "psd" && (d.Preview == nil || len(d.Preview.Data) == 0) {
		return nil, &BlockedError{Reason: ReasonPreviewRequired}
	}

	if plan.IsPack && !d.IsFree {
		if !ValidPackPrice(d.PackPrice) {
			return nil, &BlockedError{Reason: ReasonPackPrice}
		}
		plan.IsPremium = true
		plan.Price = d.PackPrice
	}

	if ext == "svg" && d.Preview == nil {
		plan.PreviewDataURL = SVGDataURL(d.Main.Data)
	}
	return plan, nil
}

// SVGDataURL embeds svg markup as a data URL.
func SVGDataURL(data []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(bytes.TrimSpace(data))
}
