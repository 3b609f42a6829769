package seed

import (
	"testing"

	"chirp/internal/database"
	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeedPopulatesGraph(t *testing.T) {
	db := setupTestDB(t)

	err := Seed(db, Options{NumUsers: 5, NumPosts: 20, SkipBcrypt: true})
	require.NoError(t, err)

	var userCount, profileCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profileCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("parent_id IS NULL").Count(&postCount).Error)

	assert.EqualValues(t, 5, userCount)
	assert.EqualValues(t, 5, profileCount)
	assert.EqualValues(t, 20, postCount)

	// Replies always point at an existing parent.
	var orphanCount int64
	require.NoError(t, db.Model(&models.Post{}).
		Joins("LEFT JOIN posts AS parents ON parents.id = posts.parent_id").
		Where("posts.parent_id IS NOT NULL AND parents.id IS NULL").
		Count(&orphanCount).Error)
	assert.Zero(t, orphanCount)

	// No duplicate likes per user and post.
	var dupCount int64
	require.NoError(t, db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT user_id, post_id FROM likes GROUP BY user_id, post_id HAVING COUNT(*) > 1
		)`).Scan(&dupCount).Error)
	assert.Zero(t, dupCount)
}

func TestSeedCleanWipesPreviousRun(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 3, NumPosts: 5, SkipBcrypt: true}))
	require.NoError(t, Seed(db, Options{NumUsers: 2, NumPosts: 4, Clean: true, SkipBcrypt: true}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 2, userCount)
}
