package service

import (
	"context"
	"testing"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post, []string) error
	getByIDFn     func(context.Context, uint, uint) (*models.Post, error)
	getForOwnerFn func(context.Context, uint) (*models.Post, error)
	replaceTagsFn func(context.Context, *models.Post, []string) error
	listFn        func(context.Context, repository.PostFilter, uint) ([]*models.Post, error)
	homeFeedFn    func(context.Context, uint, uint, int, int) ([]*models.Post, error)
	likedByFn     func(context.Context, uint, int, int) ([]*models.Post, error)
	repliesFn     func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	updateFn      func(context.Context, *models.Post) error
	deleteFn      func(context.Context, uint) ([]string, error)
	publishFn     func(context.Context, uint, time.Time) error
	isLikedFn     func(context.Context, uint, uint) (bool, error)
	likeFn        func(context.Context, uint, uint) error
	unlikeFn      func(context.Context, uint, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) GetForOwner(ctx context.Context, id uint) (*models.Post, error) {
	return s.getForOwnerFn(ctx, id)
}
func (s *postRepoStub) ReplaceTags(ctx context.Context, post *models.Post, tags []string) error {
	return s.replaceTagsFn(ctx, post, tags)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, filter, currentUserID)
}
func (s *postRepoStub) HomeFeed(ctx context.Context, viewerUserID, viewerProfileID uint, limit, offset int) ([]*models.Post, error) {
	return s.homeFeedFn(ctx, viewerUserID, viewerProfileID, limit, offset)
}
func (s *postRepoStub) LikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.likedByFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Replies(ctx context.Context, parentID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.repliesFn(ctx, parentID, limit, offset, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) ([]string, error) {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) Publish(ctx context.Context, id uint, firedAt time.Time) error {
	return s.publishFn(ctx, id, firedAt)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	nextID := uint(1)
	return &postRepoStub{
		createFn: func(_ context.Context, post *models.Post, _ []string) error {
			post.ID = nextID
			nextID++
			return nil
		},
		getByIDFn:     func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id, Published: true}, nil },
		getForOwnerFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		replaceTagsFn: func(_ context.Context, _ *models.Post, _ []string) error { return nil },
		listFn: func(_ context.Context, _ repository.PostFilter, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		homeFeedFn: func(_ context.Context, _, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		likedByFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		repliesFn:  func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:   func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:   func(_ context.Context, _ uint) ([]string, error) { return nil, nil },
		publishFn:  func(_ context.Context, _ uint, _ time.Time) error { return nil },
		isLikedFn:  func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:     func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:   func(_ context.Context, _, _ uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByIDFn     func(context.Context, uint) (*models.Profile, error)
	getByUserIDFn func(context.Context, uint) (*models.Profile, error)
	listFn        func(context.Context, repository.ProfileFilter) ([]*models.Profile, error)
	updateFn      func(context.Context, *models.Profile) error
	isFollowingFn func(context.Context, uint, uint) (bool, error)
	followFn      func(context.Context, uint, uint) error
	unfollowFn    func(context.Context, uint, uint) error
	followersFn   func(context.Context, uint) ([]*models.Profile, error)
	followingFn   func(context.Context, uint) ([]*models.Profile, error)
}

func (s *profileRepoStub) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	return s.getByIDFn(ctx, id)
}
func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) List(ctx context.Context, filter repository.ProfileFilter) ([]*models.Profile, error) {
	return s.listFn(ctx, filter)
}
func (s *profileRepoStub) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}
func (s *profileRepoStub) IsFollowing(ctx context.Context, targetID, followerID uint) (bool, error) {
	return s.isFollowingFn(ctx, targetID, followerID)
}
func (s *profileRepoStub) Follow(ctx context.Context, targetID, followerID uint) error {
	return s.followFn(ctx, targetID, followerID)
}
func (s *profileRepoStub) Unfollow(ctx context.Context, targetID, followerID uint) error {
	return s.unfollowFn(ctx, targetID, followerID)
}
func (s *profileRepoStub) Followers(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	return s.followersFn(ctx, profileID)
}
func (s *profileRepoStub) Following(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	return s.followingFn(ctx, profileID)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByIDFn:     func(_ context.Context, id uint) (*models.Profile, error) { return &models.Profile{ID: id}, nil },
		getByUserIDFn: func(_ context.Context, userID uint) (*models.Profile, error) { return &models.Profile{ID: userID, UserID: userID}, nil },
		listFn:        func(_ context.Context, _ repository.ProfileFilter) ([]*models.Profile, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Profile) error { return nil },
		isFollowingFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		followFn:      func(_ context.Context, _, _ uint) error { return nil },
		unfollowFn:    func(_ context.Context, _, _ uint) error { return nil },
		followersFn:   func(_ context.Context, _ uint) ([]*models.Profile, error) { return nil, nil },
		followingFn:   func(_ context.Context, _ uint) ([]*models.Profile, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	deleteFn     func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn: func(_ context.Context, user *models.User) error {
			user.ID = 1
			if user.Profile == nil {
				user.Profile = &models.Profile{ID: 1, UserID: 1}
			}
			return nil
		},
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// schedStub records schedule and cancel calls.
type schedStub struct {
	scheduled map[uint]time.Time
	cancelled []uint
}

func newSchedStub() *schedStub {
	return &schedStub{scheduled: make(map[uint]time.Time)}
}

func (s *schedStub) Schedule(_ context.Context, postID uint, at time.Time) error {
	s.scheduled[postID] = at
	return nil
}
func (s *schedStub) Cancel(_ context.Context, postID uint) error {
	s.cancelled = append(s.cancelled, postID)
	return nil
}
func (s *schedStub) Start(context.Context) {}
func (s *schedStub) Stop()                 {}

func testFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}
