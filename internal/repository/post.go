package repository

import (
	"context"
	"errors"
	"time"

	"chirp/internal/cache"
	"chirp/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows post listings. Tags match any of the given names
// (logical OR); Search is a case-insensitive substring match on text.
type PostFilter struct {
	Tags     []string
	AuthorID uint
	Search   string
	Limit    int
	Offset   int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagNames []string) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetForOwner(ctx context.Context, id uint) (*models.Post, error)
	ReplaceTags(ctx context.Context, post *models.Post, tagNames []string) error
	List(ctx context.Context, filter PostFilter, currentUserID uint) ([]*models.Post, error)
	HomeFeed(ctx context.Context, viewerUserID, viewerProfileID uint, limit, offset int) ([]*models.Post, error)
	LikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Replies(ctx context.Context, parentID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) ([]string, error)
	Publish(ctx context.Context, id uint, firedAt time.Time) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count, " +
		"(SELECT COUNT(*) FROM posts AS replies WHERE replies.parent_id = posts.id) AS reply_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", currentUserID)
	}

	return db.Select(selectQuery + ", FALSE AS liked")
}

func (r *postRepository) withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User.Profile").
		Preload("Tags").
		Preload("Images")
}

// ensureTags resolves tag names to Tag rows, creating missing ones.
// Names are matched by exact identity.
func (r *postRepository) ensureTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var tag models.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := r.ensureTags(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags
		return tx.Create(post).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

// GetByID resolves a single published post with counts and associations.
func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post

	fetch := func() error {
		err := r.withAssociations(r.applyPostDetails(r.db.WithContext(ctx), currentUserID)).
			Where("posts.published = ?", true).
			First(&post, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	// The liked flag is viewer-specific, so only anonymous reads go through
	// the cache.
	if currentUserID == 0 {
		if err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, fetch); err != nil {
			return nil, err
		}
		return &post, nil
	}

	if err := fetch(); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetForOwner resolves a post regardless of published state, for ownership
// checks on update and delete. Authors can touch their scheduled posts.
func (r *postRepository) GetForOwner(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withAssociations(r.db.WithContext(ctx)).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ReplaceTags swaps the post's tag set for the given names, creating missing
// tag rows.
func (r *postRepository) ReplaceTags(ctx context.Context, post *models.Post, tagNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := r.ensureTags(tx, tagNames)
		if err != nil {
			return err
		}
		if err := tx.Model(post).Association("Tags").Replace(&tags); err != nil {
			return err
		}
		post.Tags = tags
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// cachedFrontPageLimit is the default page size the API serves. Only a list
// request of exactly this shape lands under the shared list cache key.
const cachedFrontPageLimit = 20

func (r *postRepository) List(ctx context.Context, filter PostFilter, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post

	fetch := func() error {
		q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), currentUserID).
			Where("posts.published = ?", true)

		if len(filter.Tags) > 0 {
			q = q.
				Joins("JOIN post_tags ON post_tags.post_id = posts.id").
				Joins("JOIN tags ON tags.id = post_tags.tag_id").
				Where("tags.name IN ?", filter.Tags).
				Distinct()
		}
		if filter.AuthorID != 0 {
			q = q.Where("posts.user_id = ?", filter.AuthorID)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(posts.text) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}

		err := r.withAssociations(q).
			Order("posts.created_at DESC").
			Find(&posts).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	// The list key carries no filter component, so only the anonymous
	// default front page is cached. Any other shape goes straight to the
	// database.
	if currentUserID == 0 && len(filter.Tags) == 0 && filter.AuthorID == 0 &&
		filter.Search == "" && filter.Offset == 0 && filter.Limit == cachedFrontPageLimit {
		if err := cache.Aside(ctx, cache.PostsListKey, &posts, cache.ListTTL, fetch); err != nil {
			return nil, err
		}
		return posts, nil
	}

	if err := fetch(); err != nil {
		return nil, err
	}
	return posts, nil
}

// HomeFeed returns published posts authored by the viewer or by anyone the
// viewer's profile follows, newest first.
func (r *postRepository) HomeFeed(ctx context.Context, viewerUserID, viewerProfileID uint, limit, offset int) ([]*models.Post, error) {
	followedAuthors := r.db.Table("profile_followers").
		Select("profiles.user_id").
		Joins("JOIN profiles ON profiles.id = profile_followers.profile_id").
		Where("profile_followers.follower_id = ?", viewerProfileID)

	q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), viewerUserID).
		Where("posts.published = ?", true).
		Where("posts.user_id = ? OR posts.user_id IN (?)", viewerUserID, followedAuthors)

	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var posts []*models.Post
	err := r.withAssociations(q).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// LikedBy returns published posts the given user has liked, newest first.
func (r *postRepository) LikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), userID).
		Joins("JOIN likes ON likes.post_id = posts.id").
		Where("likes.user_id = ?", userID).
		Where("posts.published = ?", true)

	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var posts []*models.Post
	err := r.withAssociations(q).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Replies(ctx context.Context, parentID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), currentUserID).
		Where("posts.published = ?", true).
		Where("posts.parent_id = ?", parentID)

	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var posts []*models.Post
	err := r.withAssociations(q).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Tags", "Images", "User", "Parent").Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete removes the post and, transitively, its reply tree together with the
// images, likes and tag links of every removed post. Done explicitly in one
// transaction so behavior does not depend on FK enforcement being enabled.
// Returns the stored image paths of the whole tree so callers can clean up
// the files.
func (r *postRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var imagePaths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&models.Post{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Model(&models.PostImage{}).
			Where("post_id IN ?", ids).
			Pluck("image", &imagePaths).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id IN ?", ids).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Post{}).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return imagePaths, nil
}

// Publish is the deferred publish transition: flip published and reset
// created_at to the firing time so feed order reflects visibility time.
// Safe to apply more than once.
func (r *postRepository) Publish(ctx context.Context, id uint, firedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"published":  true,
			"created_at": firedAt,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	// INSERT ... ON CONFLICT DO NOTHING is atomic and absorbs races between
	// concurrent toggles from the same user.
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (user_id, post_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, time.Now().UTC(),
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}
