package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/validation"
)

const maxBioLen = 160

// ProfileService owns profile management and the follow graph.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	store       *FileStore
}

type UpdateProfileInput struct {
	UserID  uint
	Bio     *string
	Gender  *string
	Country *string
}

func NewProfileService(profileRepo repository.ProfileRepository, store *FileStore) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, store: store}
}

func (s *ProfileService) GetProfile(ctx context.Context, profileID uint) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, profileID)
}

func (s *ProfileService) GetOwnProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

func (s *ProfileService) ListProfiles(ctx context.Context, filter repository.ProfileFilter) ([]*models.Profile, error) {
	return s.profileRepo.List(ctx, filter)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio must not exceed 160 characters")
		}
		profile.Bio = *in.Bio
	}
	if in.Gender != nil {
		gender := models.Gender(*in.Gender)
		if !models.ValidGender(gender) {
			return nil, models.NewValidationError("Gender must be one of: female, male, other")
		}
		profile.Gender = gender
	}
	if in.Country != nil {
		country := strings.ToUpper(strings.TrimSpace(*in.Country))
		if country != "" && len(country) != 2 {
			return nil, models.NewValidationError("Country must be a two-letter code")
		}
		profile.Country = country
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdatePicture stores a new profile picture and replaces the old one.
func (s *ProfileService) UpdatePicture(ctx context.Context, userID uint, filename string, content []byte) (*models.Profile, error) {
	if err := validation.ValidateImage(content, validation.MaxProfilePictureBytes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := s.store.Save("profile_pictures", filename, content)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	old := profile.Picture
	profile.Picture = path
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		s.store.Remove(path)
		return nil, err
	}
	if old != "" {
		s.store.Remove(old)
	}
	return profile, nil
}

// Follow adds the edge viewer -> target. Returns false without error when the
// edge already exists or the viewer targets their own profile.
func (s *ProfileService) Follow(ctx context.Context, actorUserID, targetProfileID uint) (bool, error) {
	actor, err := s.profileRepo.GetByUserID(ctx, actorUserID)
	if err != nil {
		return false, err
	}
	if actor.ID == targetProfileID {
		return false, nil
	}
	if _, err := s.profileRepo.GetByID(ctx, targetProfileID); err != nil {
		return false, err
	}

	following, err := s.profileRepo.IsFollowing(ctx, targetProfileID, actor.ID)
	if err != nil {
		return false, err
	}
	if following {
		return false, nil
	}
	if err := s.profileRepo.Follow(ctx, targetProfileID, actor.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Unfollow removes the edge viewer -> target, with the same no-op contract.
func (s *ProfileService) Unfollow(ctx context.Context, actorUserID, targetProfileID uint) (bool, error) {
	actor, err := s.profileRepo.GetByUserID(ctx, actorUserID)
	if err != nil {
		return false, err
	}
	if actor.ID == targetProfileID {
		return false, nil
	}
	if _, err := s.profileRepo.GetByID(ctx, targetProfileID); err != nil {
		return false, err
	}

	following, err := s.profileRepo.IsFollowing(ctx, targetProfileID, actor.ID)
	if err != nil {
		return false, err
	}
	if !following {
		return false, nil
	}
	if err := s.profileRepo.Unfollow(ctx, targetProfileID, actor.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ProfileService) Followers(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	if _, err := s.profileRepo.GetByID(ctx, profileID); err != nil {
		return nil, err
	}
	return s.profileRepo.Followers(ctx, profileID)
}

func (s *ProfileService) Following(ctx context.Context, profileID uint) ([]*models.Profile, error) {
	if _, err := s.profileRepo.GetByID(ctx, profileID); err != nil {
		return nil, err
	}
	return s.profileRepo.Following(ctx, profileID)
}
