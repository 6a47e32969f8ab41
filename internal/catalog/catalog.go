// Package catalog holds the platform and asset-type catalog shipped with the binary.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"viralpik/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var raw []byte

// AssetType is one kind of template a platform accepts.
type AssetType struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Width  int    `yaml:"width" json:"width,omitempty"`
	Height int    `yaml:"height" json:"height,omitempty"`
}

// DefaultDimensions returns the canonical size when the type has one.
func (t AssetType) DefaultDimensions() (models.Dimensions, bool) {
	d := models.Dimensions{Width: t.Width, Height: t.Height}
	return d, !d.IsZero()
}

// Platform groups asset types for one social platform.
type Platform struct {
	ID         models.Platform `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	AssetTypes []AssetType     `yaml:"asset_types" json:"asset_types"`
}

// Catalog is the parsed catalog file.
type Catalog struct {
	Platforms []Platform `yaml:"platforms" json:"platforms"`
	TagPool   []string   `yaml:"tag_pool" json:"tag_pool"`

	byKey map[string]AssetType
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Platforms) == 0 {
		return nil, fmt.Errorf("parse catalog: no platforms")
	}

	c.byKey = make(map[string]AssetType)
	for _, p := range c.Platforms {
		for _, t := range p.AssetTypes {
			key := string(p.ID) + "/" + t.ID
			if _, dup := c.byKey[key]; dup {
				return nil, fmt.Errorf("parse catalog: duplicate asset type %s", key)
			}
			c.byKey[key] = t
		}
	}
	return &c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(raw)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Lookup finds an asset type for a platform.
func (c *Catalog) Lookup(platform models.Platform, assetType string) (AssetType, bool) {
	t, ok := c.byKey[string(platform)+"/"+assetType]
	return t, ok
}

// HasPlatform reports whether platform is listed.
func (c *Catalog) HasPlatform(platform models.Platform) bool {
	for _, p := range c.Platforms {
		if p.ID == platform {
			return true
		}
	}
	return false
}

// DefaultDimensions returns the catalog size for (platform, assetType), if any.
func (c *Catalog) DefaultDimensions(platform models.Platform, assetType string) (models.Dimensions, bool) {
	t, ok := c.Lookup(platform, assetType)
	if !ok {
		return models.Dimensions{}, false
	}
	return t.DefaultDimensions()
}
