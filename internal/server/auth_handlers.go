package server

import (
	"fmt"
	"strconv"
	"time"

	"chirp/internal/models"
	"chirp/internal/serializer"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("User already exists"))
	}

	user, err := s.userService.Register(c.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	access, refresh, err := s.generateTokenPair(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access":  access,
		"refresh": refresh,
		"user":    serializer.AccountFrom(user),
	})
}

// Token handles POST /api/auth/token (login)
func (s *Server) Token(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	access, refresh, err := s.generateTokenPair(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"access":  access,
		"refresh": refresh,
		"user":    serializer.AccountFrom(user),
	})
}

// RefreshToken handles POST /api/auth/token/refresh
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Refresh token is required"))
	}

	claims, err := s.parseToken(req.Refresh, tokenTypeRefresh)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired refresh token"))
	}
	if s.isDenylisted(c, claims) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Refresh token has been revoked"))
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token subject"))
	}
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Account no longer exists"))
	}

	access, refresh, err := s.generateTokenPair(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	// Rotation: the presented refresh token is spent.
	s.denylist(c, claims)

	return c.JSON(fiber.Map{
		"access":  access,
		"refresh": refresh,
	})
}

// Logout handles POST /api/auth/logout. Revokes the presented refresh token;
// access tokens simply age out.
func (s *Server) Logout(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Refresh token is required"))
	}

	claims, err := s.parseToken(req.Refresh, tokenTypeRefresh)
	if err != nil {
		// Already invalid; logout is idempotent.
		return c.SendStatus(fiber.StatusNoContent)
	}
	s.denylist(c, claims)

	return c.SendStatus(fiber.StatusNoContent)
}

// generateTokenPair issues a short-lived access token and a long-lived
// refresh token for the user.
func (s *Server) generateTokenPair(userID uint, username string) (string, string, error) {
	access, err := s.generateToken(userID, username, tokenTypeAccess, accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.generateToken(userID, username, tokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Server) generateToken(userID uint, username, tokenType string, ttl time.Duration) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"type":     tokenType,
		"iss":      "chirp-api",
		"aud":      "chirp-client",
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so refresh tokens can be revoked
// individually.
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// denylist marks the token's jti revoked until the token would have expired.
// Without Redis revocation degrades to expiry-only.
func (s *Server) denylist(c *fiber.Ctx, claims jwt.MapClaims) {
	if s.redis == nil {
		return
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	ttl := refreshTokenTTL
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if until := time.Until(exp.Time); until > 0 {
			ttl = until
		}
	}
	s.redis.Set(c.Context(), "denylist:"+jti, "1", ttl)
}

func (s *Server) isDenylisted(c *fiber.Ctx, claims jwt.MapClaims) bool {
	if s.redis == nil {
		return false
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return false
	}
	exists, err := s.redis.Exists(c.Context(), "denylist:"+jti).Result()
	return err == nil && exists > 0
}
