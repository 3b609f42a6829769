package service

import (
	"context"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/scheduler"
	"chirp/internal/validation"
)

// PostService owns the post state machine: validation, the draft ->
// scheduled -> published transitions, ownership checks and like toggles.
type PostService struct {
	postRepo    repository.PostRepository
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	sched       scheduler.Scheduler
	store       *FileStore
}

// ImageUpload carries one decoded multipart attachment.
type ImageUpload struct {
	Filename string
	Content  []byte
}

type CreatePostInput struct {
	UserID    uint
	Text      string
	Tags      []string
	Images    []ImageUpload
	ParentID  *uint
	PublishAt *time.Time
}

type ListPostsInput struct {
	Tags          []string
	AuthorID      uint
	Search        string
	Limit         int
	Offset        int
	CurrentUserID uint
}

type UpdatePostInput struct {
	UserID uint
	PostID uint
	Text   string
	// Tags replaces the tag set when non-nil; nil leaves tags untouched.
	Tags []string
}

func NewPostService(
	postRepo repository.PostRepository,
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	sched scheduler.Scheduler,
	store *FileStore,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		profileRepo: profileRepo,
		userRepo:    userRepo,
		sched:       sched,
		store:       store,
	}
}

// CreatePost validates and persists a post or reply. A future PublishAt
// creates the post unpublished and hands it to the scheduler; the returned
// time echoes the resolved publish time in that case, nil otherwise.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, *time.Time, error) {
	if err := validation.ValidatePostText(in.Text); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}
	for _, tag := range in.Tags {
		if err := validation.ValidateTagName(tag); err != nil {
			return nil, nil, models.NewValidationError(err.Error())
		}
	}
	if len(in.Images) > validation.MaxPostImages {
		return nil, nil, models.NewValidationError("Too many images (max 10)")
	}
	for _, img := range in.Images {
		if err := validation.ValidateImage(img.Content, validation.MaxPostImageBytes); err != nil {
			return nil, nil, models.NewValidationError(err.Error())
		}
	}

	if in.ParentID != nil {
		if _, err := s.postRepo.GetByID(ctx, *in.ParentID, 0); err != nil {
			return nil, nil, err
		}
	}

	published := true
	var publishAt *time.Time
	if in.PublishAt != nil && in.PublishAt.After(time.Now()) {
		published = false
		at := in.PublishAt.UTC()
		publishAt = &at
	}

	images, err := s.storeImages(in.Images)
	if err != nil {
		return nil, nil, err
	}

	post := &models.Post{
		UserID:    &in.UserID,
		ParentID:  in.ParentID,
		Text:      in.Text,
		Published: published,
		Images:    images,
	}
	if err := s.postRepo.Create(ctx, post, in.Tags); err != nil {
		s.removeImages(images)
		return nil, nil, err
	}

	if publishAt != nil {
		if err := s.sched.Schedule(ctx, post.ID, *publishAt); err != nil {
			middleware.Logger.Error("failed to schedule publish", "post_id", post.ID, "error", err)
		}
	}

	if author, err := s.userRepo.GetByID(ctx, in.UserID); err == nil {
		post.User = author
	}
	return post, publishAt, nil
}

// Publish is the deferred transition handed to the scheduler.
func (s *PostService) Publish(ctx context.Context, postID uint, firedAt time.Time) error {
	return s.postRepo.Publish(ctx, postID, firedAt)
}

func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, currentUserID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	return s.postRepo.List(ctx, repository.PostFilter{
		Tags:     in.Tags,
		AuthorID: in.AuthorID,
		Search:   in.Search,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}, in.CurrentUserID)
}

// HomeFeed returns published posts by the viewer or by authors the viewer
// follows.
func (s *PostService) HomeFeed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.postRepo.HomeFeed(ctx, userID, profile.ID, limit, offset)
}

func (s *PostService) LikedPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.LikedBy(ctx, userID, limit, offset)
}

// Replies lists direct replies of a visible post, 404 when the parent is
// missing or unpublished.
func (s *PostService) Replies(ctx context.Context, parentID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, parentID, 0); err != nil {
		return nil, err
	}
	return s.postRepo.Replies(ctx, parentID, limit, offset, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.ownedPost(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}

	// All validation happens before any write so a bad tag cannot leave a
	// half-applied update behind.
	if err := validation.ValidatePostText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	for _, tag := range in.Tags {
		if err := validation.ValidateTagName(tag); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	post.Text = in.Text
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		if err := s.postRepo.ReplaceTags(ctx, post, in.Tags); err != nil {
			return nil, err
		}
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.ownedPost(ctx, postID, userID)
	if err != nil {
		return err
	}

	if !post.Published {
		if err := s.sched.Cancel(ctx, post.ID); err != nil {
			middleware.Logger.Error("failed to cancel scheduled publish", "post_id", post.ID, "error", err)
		}
	}
	// Delete reports image paths for the whole reply tree, not just the
	// root, so replies' uploads are cleaned up too.
	imagePaths, err := s.postRepo.Delete(ctx, post.ID)
	if err != nil {
		return err
	}
	for _, path := range imagePaths {
		if err := s.store.Remove(path); err != nil {
			middleware.Logger.Warn("failed to remove post image file", "path", path, "error", err)
		}
	}
	return nil
}

// Like adds the viewer's like. Returns false without error when the like
// already existed.
func (s *PostService) Like(ctx context.Context, userID, postID uint) (bool, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return false, err
	}
	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, nil
	}
	if err := s.postRepo.Like(ctx, userID, postID); err != nil {
		return false, err
	}
	return true, nil
}

// Unlike removes the viewer's like. Returns false without error when there
// was nothing to remove.
func (s *PostService) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return false, err
	}
	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if !liked {
		return false, nil
	}
	if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostService) ownedPost(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.postRepo.GetForOwner(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID == nil || *post.UserID != userID {
		return nil, models.NewForbiddenError("You do not own this post")
	}
	return post, nil
}

func (s *PostService) storeImages(uploads []ImageUpload) ([]models.PostImage, error) {
	images := make([]models.PostImage, 0, len(uploads))
	for _, up := range uploads {
		path, err := s.store.Save("post_images", up.Filename, up.Content)
		if err != nil {
			s.removeImages(images)
			return nil, models.NewInternalError(err)
		}
		images = append(images, models.PostImage{Image: path})
	}
	return images, nil
}

func (s *PostService) removeImages(images []models.PostImage) {
	for _, img := range images {
		if err := s.store.Remove(img.Image); err != nil {
			middleware.Logger.Warn("failed to remove post image file", "path", img.Image, "error", err)
		}
	}
}
