// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// AssetStatus is the moderation state of an asset.
type AssetStatus string

const (
	AssetStatusPending  AssetStatus = "pending"
	AssetStatusApproved AssetStatus = "approved"
	AssetStatusRejected AssetStatus = "rejected"
)

// Platform is the social platform an asset targets.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformSpotify   Platform = "spotify"
	PlatformTwitch    Platform = "twitch"
	PlatformDiscord   Platform = "discord"
	PlatformFX        Platform = "fx"
)

// EnrichmentStatus tracks the background enrichment worker.
type EnrichmentStatus string

const (
	EnrichmentNone   EnrichmentStatus = ""
	EnrichmentQueued EnrichmentStatus = "queued"
	EnrichmentActive EnrichmentStatus = "running"
	EnrichmentDone   EnrichmentStatus = "done"
	EnrichmentFailed EnrichmentStatus = "failed"
)

// Pack price bounds for premium packs.
const (
	MinPackPrice = 4.0
	MaxPackPrice = 50.0
)

// Tag count bounds at creation time.
const (
	MinTags = 5
	MaxTags = 10
)

// Tags is a string set stored as a JSON array column.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("tags: unsupported column type")
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*t = out
	return nil
}

// Contains reports whether tag is in the set (case-insensitive).
func (t Tags) Contains(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Asset is a downloadable template uploaded by a creator.
type Asset struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Title            string           `gorm:"size:200;not null" json:"title"`
	Description      string           `gorm:"type:text" json:"description"`
	Platform         Platform         `gorm:"type:varchar(32);not null;index" json:"platform"`
	AssetType        string           `gorm:"type:varchar(64);not null;index" json:"asset_type"`
	Tags             Tags             `gorm:"type:text" json:"tags"`
	// FileURL is handed out through a download grant, never in listings.
	FileURL          string           `gorm:"not null" json:"-"`
	// SourceURL carries FileURL as file_url for the creator and admins only.
	SourceURL        string           `gorm:"-" json:"file_url,omitempty"`
	PreviewURL       string           `json:"preview_url"`
	FileSize         int64            `json:"file_size"`
	Format           string           `gorm:"type:varchar(16)" json:"format"`
	Width            *int             `json:"width,omitempty"`
	Height           *int             `json:"height,omitempty"`
	Status           AssetStatus      `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	DownloadCount    int64            `gorm:"not null;default:0" json:"download_count"`
	ViewCount        int64            `gorm:"not null;default:0" json:"view_count"`
	LikeCount        int64            `gorm:"not null;default:0" json:"like_count"`
	Price            float64          `gorm:"not null;default:0" json:"price"`
	IsPremium        bool             `gorm:"not null;default:false" json:"is_premium"`
	IsPack           bool             `gorm:"not null;default:false" json:"is_pack"`
	CreatorID        uint             `gorm:"not null;index" json:"creator_id"`
	Creator          *Profile         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	EnrichmentStatus EnrichmentStatus `gorm:"type:varchar(16);index" json:"enrichment_status,omitempty"`
	EnrichAttempts   int              `gorm:"not null;default:0" json:"-"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	// Liked and Saved are computed per requesting user
	Liked     bool           `gorm:"->;-:migration" json:"liked"`
	Saved     bool           `gorm:"->;-:migration" json:"saved"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Asset) TableName() string {
	return "assets"
}

// Dimensions returns the stored width/height when both are set.
func (a *Asset) Dimensions() (Dimensions, bool) {
	if a.Width == nil || a.Height == nil {
		return Dimensions{}, false
	}
	return Dimensions{Width: *a.Width, Height: *a.Height}, true
}

// SetDimensions stores d on the asset, or clears it when d is zero.
func (a *Asset) SetDimensions(d Dimensions) {
	if d.IsZero() {
		a.Width, a.Height = nil, nil
		return
	}
	w, h := d.Width, d.Height
	a.Width, a.Height = &w, &h
}

// RevealFile exposes the file URL in the JSON form of a.
func (a *Asset) RevealFile() {
	a.SourceURL = a.FileURL
}

// Dimensions is a pixel size.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether no size is known.
func (d Dimensions) IsZero() bool {
	return d.Width <= 0 || d.Height <= 0
}

// CanTransition reports whether a moderation status change is allowed.
// Only pending assets can be approved or rejected.
func CanTransition(from, to AssetStatus) bool {
	if from != AssetStatusPending {
		return false
	}
	return to == AssetStatusApproved || to == AssetStatusRejected
}
