package submission

import (
	"bytes"
	"encoding/xml"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"viralpik/internal/catalog"
	"viralpik/internal/models"

	_ "golang.org/x/image/webp"
)

// InferDimensions decodes the preview, then the main file, and falls back to
// the catalog default for the platform and asset type.
func InferDimensions(d Draft, cat *catalog.Catalog) (models.Dimensions, bool) {
	for _, f := range []*File{d.Preview, d.Main} {
		if f == nil || len(f.Data) == 0 {
			continue
		}
		if dims, ok := decodeDimensions(f); ok {
			return dims, true
		}
	}
	if cat == nil {
		return models.Dimensions{}, false
	}
	return cat.DefaultDimensions(d.Platform, d.AssetType)
}

func decodeDimensions(f *File) (models.Dimensions, bool) {
	if Extension(f.Name) == "svg" || strings.HasPrefix(f.ContentType, "image/svg") {
		return SVGSize(f.Data)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return models.Dimensions{}, false
	}
	return models.Dimensions{Width: cfg.Width, Height: cfg.Height}, true
}

// SVGSize reads width and height from the root svg element, falling back to
// its viewBox.
func SVGSize(data []byte) (models.Dimensions, bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return models.Dimensions{}, false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return models.Dimensions{}, false
		}
		var width, height, viewBox string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "width":
				width = a.Value
			case "height":
				height = a.Value
			case "viewBox":
				viewBox = a.Value
			}
		}
		w, wok := svgLength(width)
		h, hok := svgLength(height)
		if wok && hok {
			return models.Dimensions{Width: w, Height: h}, true
		}
		return parseViewBox(viewBox)
	}
}

func svgLength(v string) (int, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(f + 0.5), true
}

func parseViewBox(v string) (models.Dimensions, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return models.Dimensions{}, false
	}
	w, wok := svgLength(fields[2])
	h, hok := svgLength(fields[3])
	if !wok || !hok {
		return models.Dimensions{}, false
	}
	return models.Dimensions{Width: w, Height: h}, true
}
