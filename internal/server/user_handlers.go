package server

import (
	"io"

	"chirp/internal/models"
	"chirp/internal/serializer"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyAccount handles GET /api/users/me/account
func (s *Server) GetMyAccount(c *fiber.Ctx) error {
	user, err := s.userService.GetAccount(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(serializer.AccountFrom(user))
}

// UpdateMyAccount handles PUT /api/users/me/account. Partial update; is_staff
// is read-only.
func (s *Server) UpdateMyAccount(c *fiber.Ctx) error {
	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateAccount(c.Context(), service.UpdateAccountInput{
		UserID:   currentUserID(c),
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.AccountFrom(user))
}

// DeleteMyAccount handles DELETE /api/users/me/account
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteAccount(c.Context(), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyProfile handles GET /api/users/me/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetOwnProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(serializer.ProfileDetailFrom(profile))
}

// UpdateMyProfile handles PUT /api/users/me/profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Bio     *string `json:"bio"`
		Gender  *string `json:"gender"`
		Country *string `json:"country"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:  currentUserID(c),
		Bio:     req.Bio,
		Gender:  req.Gender,
		Country: req.Country,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.ProfileDetailFrom(profile))
}

// UpdateMyProfilePicture handles PUT /api/users/me/profile/picture
// (multipart field "picture", at most 1MB).
func (s *Server) UpdateMyProfilePicture(c *fiber.Ctx) error {
	header, err := c.FormFile("picture")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Picture file is required"))
	}

	file, err := header.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded picture"))
	}
	content, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded picture"))
	}

	profile, err := s.profileService.UpdatePicture(c.Context(), currentUserID(c), header.Filename, content)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.ProfileDetailFrom(profile))
}
