package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "Sup3r-Secret-Pass!"

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret: "0123456789abcdef0123456789abcdef",
		Env:       "test",
		UploadDir: t.TempDir(),
	}
}

// newTestServer wires a full Server against an in-memory database with the
// real routing table, so requests exercise the same path as production.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	return newTestServerWithRedis(t, nil)
}

func newTestServerWithRedis(t *testing.T, rdb *redis.Client) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	srv, err := NewServerWithDeps(newTestConfig(t), db, rdb)
	require.NoError(t, err)
	t.Cleanup(srv.StopScheduler)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

// registerUser creates an account through the service layer and returns it
// together with a valid access token.
func registerUser(t *testing.T, srv *Server, username string) (*models.User, string) {
	t.Helper()

	user, err := srv.userService.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	access, _, err := srv.generateTokenPair(user.ID, user.Username)
	require.NoError(t, err)
	return user, access
}

func profileIDFor(t *testing.T, srv *Server, userID uint) uint {
	t.Helper()

	profile, err := srv.profileRepo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return profile.ID
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
