package database

import "chirp/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Ordering matters: referenced tables must migrate before their dependents.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Follow{},
		&models.Tag{},
		&models.Post{},
		&models.PostImage{},
		&models.Like{},
	}
}
