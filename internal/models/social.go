package models

import "time"

// Follow is a directed edge between two profiles. Self-loops are rejected.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follow_no_self,follower_id <> following_id" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  Profile `gorm:"foreignKey:FollowerID" json:"-"`
	Following Profile `gorm:"foreignKey:FollowingID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// Like represents a user's like on an asset.
// The combination of UserID and AssetID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_asset" json:"user_id"`
	AssetID   uint      `gorm:"not null;uniqueIndex:idx_like_user_asset;index" json:"asset_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Save bookmarks an asset, optionally into one of the user's collections.
type Save struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_save_user_asset" json:"user_id"`
	AssetID      uint      `gorm:"not null;uniqueIndex:idx_save_user_asset;index" json:"asset_id"`
	CollectionID *uint     `gorm:"index" json:"collection_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Save) TableName() string {
	return "saves"
}

// Download is an audit row written for every authorized download.
type Download struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_downloads_user_created" json:"user_id"`
	AssetID   uint      `gorm:"not null;index" json:"asset_id"`
	Tier      Tier      `gorm:"type:varchar(16);not null" json:"tier"`
	CreatedAt time.Time `gorm:"index:idx_downloads_user_created" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Download) TableName() string {
	return "downloads"
}
