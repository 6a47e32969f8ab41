package models

import (
	"time"

	"gorm.io/gorm"
)

// Tier is a subscription level that determines download quotas.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierBusiness:
		return true
	}
	return false
}

// Profile is a ViralPik account. Its ID is the auth identity.
type Profile struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email          string `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password       string `gorm:"not null" json:"-"`
	DisplayName    string `gorm:"size:80" json:"display_name"`
	Bio            string `gorm:"type:text" json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	Website        string `json:"website,omitempty"`
	YouTubeURL     string `gorm:"column:youtube_url" json:"youtube_url,omitempty"`
	TikTokURL      string `gorm:"column:tiktok_url" json:"tiktok_url,omitempty"`
	InstagramURL   string `json:"instagram_url,omitempty"`
	TwitterURL     string `json:"twitter_url,omitempty"`
	IsCreator      bool   `gorm:"not null;default:false" json:"is_creator"`
	IsAdmin        bool   `gorm:"not null;default:false" json:"is_admin"`
	IsApproved     bool   `gorm:"not null;default:false" json:"is_approved"`
	CanEarn        bool   `gorm:"not null;default:false" json:"can_earn"`
	Tier           Tier   `gorm:"type:varchar(16);not null;default:'free'" json:"tier"`
	FollowerCount  int64  `gorm:"not null;default:0" json:"follower_count"`
	FollowingCount int64  `gorm:"not null;default:0" json:"following_count"`
	// IsFollowing is computed per requesting user
	IsFollowing bool           `gorm:"->;-:migration" json:"is_following"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// EffectiveTier returns the profile tier, defaulting to free.
func (p *Profile) EffectiveTier() Tier {
	if p == nil || !p.Tier.Valid() {
		return TierFree
	}
	return p.Tier
}
