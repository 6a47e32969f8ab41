package models

import (
	"time"

	"gorm.io/gorm"
)

// Collection is an owned, named list of assets.
type Collection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Name        string         `gorm:"size:80;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsPublic    bool           `gorm:"not null;default:false" json:"is_public"`
	AssetCount  int            `gorm:"->;-:migration" json:"asset_count"`
	Assets      []Asset        `gorm:"many2many:collection_assets;joinForeignKey:CollectionID;joinReferences:AssetID" json:"assets,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Collection) TableName() string {
	return "collections"
}

// VisibleTo reports whether viewerID may read the collection.
func (c *Collection) VisibleTo(viewerID uint) bool {
	return c.IsPublic || (viewerID != 0 && c.OwnerID == viewerID)
}

// CollectionAsset is the join row between collections and assets.
type CollectionAsset struct {
	CollectionID uint      `gorm:"primaryKey" json:"collection_id"`
	AssetID      uint      `gorm:"primaryKey" json:"asset_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (CollectionAsset) TableName() string {
	return "collection_assets"
}

// Comment is a user comment on an asset.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AssetID   uint           `gorm:"not null;index" json:"asset_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      *Profile       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}
