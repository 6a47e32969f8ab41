package database

import "viralpik/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.Asset{},
		&models.Follow{},
		&models.Like{},
		&models.Save{},
		&models.Download{},
		&models.Collection{},
		&models.CollectionAsset{},
		&models.Comment{},
		&models.UserPreferences{},
		&models.SupportTicket{},
	}
}
