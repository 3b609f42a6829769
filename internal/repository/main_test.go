package repository

import (
	"testing"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh in-memory database per test. The pool is pinned
// to one connection so every query sees the same :memory: instance.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(user).Error)

	profile := &models.Profile{UserID: user.ID}
	require.NoError(t, db.Create(profile).Error)
	user.Profile = profile

	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, text string, createdAt time.Time) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID:    &userID,
		Text:      text,
		Published: true,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
