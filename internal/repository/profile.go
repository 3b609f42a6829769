package repository

import (
	"context"
	"errors"
	"time"

	"chirp/internal/cache"
	"chirp/internal/models"

	"gorm.io/gorm"
)

// ProfileFilter narrows profile listings. String filters are
// case-insensitive substring matches.
type ProfileFilter struct {
	Username string
	Bio      string
	Country  string
	Limit    int
	Offset   int
}

// ProfileRepository defines persistence operations for profiles and the
// follower graph.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	IsFollowing(ctx context.Context, targetID, followerID uint) (bool, error)
	Follow(ctx context.Context, targetID, followerID uint) error
	Unfollow(ctx context.Context, targetID, followerID uint) error
	Followers(ctx context.Context, profileID uint) ([]*models.Profile, error)
	Following(ctx context.Context, profileID uint) ([]*models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// applyFollowCounts adds subqueries computing follower/following counts in a
// single query.
func (r *profileRepository) applyFollowCounts(db *gorm.DB) *gorm.DB {
	return db.Select("profiles.*, " +
		"(SELECT COUNT(*) FROM profile_followers WHERE profile_followers.profile_id = profiles.id) AS follower_count, " +
		"(SELECT COUNT(*) FROM profile_followers WHERE profile_followers.follower_id = profiles.id) AS following_count")
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(id), &profile, cache.ProfileTTL, func() error {
		err := r.applyFollowCounts(r.db.WithContext(ctx)).
			Preload("User").
			First(&profile, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Profile", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.applyFollowCounts(r.db.WithContext(ctx)).
		Preload("User").
		Where("profiles.user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]*models.Profile, error) {
	q := r.db.WithContext(ctx).Model(&models.Profile{}).
		Joins("JOIN users ON users.id = profiles.user_id").
		Preload("User")

	if filter.Username != "" {
		q = q.Where("LOWER(users.username) LIKE LOWER(?)", "%"+filter.Username+"%")
	}
	if filter.Bio != "" {
		q = q.Where("LOWER(profiles.bio) LIKE LOWER(?)", "%"+filter.Bio+"%")
	}
	if filter.Country != "" {
		q = q.Where("LOWER(profiles.country) LIKE LOWER(?)", "%"+filter.Country+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var profiles []*models.Profile
	if err := q.Order("profiles.id").Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, profile.ID)
	return nil
}

func (r *profileRepository) IsFollowing(ctx context.Context, targetID, followerID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("profile_id = ? AND follower_id = ?", targetID, followerID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Follow inserts the directed edge follower -> target. The insert is atomic
// and absorbs duplicate edges, so concurrent toggles resolve last-write-wins.
func (r *profileRepository) Follow(ctx context.Context, targetID, followerID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO profile_followers (profile_id, follower_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (profile_id, follower_id) DO NOTHING`,
		targetID, followerID, time.Now().UTC(),
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, targetID)
	cache.InvalidateProfile(ctx, followerID)
	return nil
}

func (r *profileRepository) Unfollow(ctx context.Context, targetID, followerID uint) error {
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND follower_id = ?", targetID, followerID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, targetID)
	cache.InvalidateProfile(ctx, followerID)
	return nil
}

// Followers returns the profiles following profileID.
func (r *profileRepository) Followers(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Joins("JOIN profile_followers ON profile_followers.follower_id = profiles.id").
		Where("profile_followers.profile_id = ?", profileID).
		Preload("User").
		Order("profile_followers.created_at DESC").
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

// Following returns the profiles that profileID follows.
func (r *profileRepository) Following(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Joins("JOIN profile_followers ON profile_followers.profile_id = profiles.id").
		Where("profile_followers.follower_id = ?", profileID).
		Preload("User").
		Order("profile_followers.created_at DESC").
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}
