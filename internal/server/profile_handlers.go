package server

import (
	"chirp/internal/repository"
	"chirp/internal/serializer"

	"github.com/gofiber/fiber/v2"
)

// GetProfiles handles GET /api/profiles
// Filters: username, bio, country (case-insensitive substring).
func (s *Server) GetProfiles(c *fiber.Ctx) error {
	page := parsePagination(c)

	profiles, err := s.profileService.ListProfiles(c.Context(), repository.ProfileFilter{
		Username: c.Query("username"),
		Bio:      c.Query("bio"),
		Country:  c.Query("country"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.ProfilesFrom(profiles))
}

// GetProfile handles GET /api/profiles/:id
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetProfile(c.Context(), profileID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.ProfileDetailFrom(profile))
}

// FollowProfile handles POST /api/profiles/:id/follow
// 200 with an empty object when the edge was added, 204 when following
// already or targeting yourself.
func (s *Server) FollowProfile(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	changed, err := s.profileService.Follow(c.Context(), currentUserID(c), profileID)
	if err != nil {
		return respondError(c, err)
	}
	if !changed {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{})
}

// UnfollowProfile handles DELETE /api/profiles/:id/follow with the same
// toggle contract.
func (s *Server) UnfollowProfile(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	changed, err := s.profileService.Unfollow(c.Context(), currentUserID(c), profileID)
	if err != nil {
		return respondError(c, err)
	}
	if !changed {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{})
}

// GetFollowers handles GET /api/profiles/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	followers, err := s.profileService.Followers(c.Context(), profileID)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]*serializer.ProfileSummary, 0, len(followers))
	for _, p := range followers {
		out = append(out, serializer.ProfileSummaryFrom(p))
	}
	return c.JSON(out)
}

// GetFollowing handles GET /api/profiles/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.profileService.Following(c.Context(), profileID)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]*serializer.ProfileSummary, 0, len(following))
	for _, p := range following {
		out = append(out, serializer.ProfileSummaryFrom(p))
	}
	return c.JSON(out)
}
