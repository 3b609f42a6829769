package server

import (
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		IsStaff  bool   `json:"is_staff"`
	} `json:"user"`
}

func TestSignup(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Access)
	assert.NotEmpty(t, body.Refresh)
	require.NotNil(t, body.User)
	assert.Equal(t, "alice", body.User.Username)
	assert.False(t, body.User.IsStaff)

	// The fresh access token works against a protected route.
	resp = doJSON(t, app, http.MethodGet, "/api/users/me/account", body.Access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupDuplicateEmail(t *testing.T) {
	srv, app := newTestServer(t)
	registerUser(t, srv, "alice")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignupMissingFields(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	srv, app := newTestServer(t)
	registerUser(t, srv, "alice")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/token", "", map[string]string{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Access)
	assert.NotEmpty(t, body.Refresh)
}

func TestLoginBadCredentials(t *testing.T) {
	srv, app := newTestServer(t)
	registerUser(t, srv, "alice")

	// Wrong password and unknown email produce the same response.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/token", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Wr0ng-Password!!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/token", "", map[string]string{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshTokenRotation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	srv, app := newTestServerWithRedis(t, rdb)

	user, _ := registerUser(t, srv, "alice")
	_, refresh, err := srv.generateTokenPair(user.ID, user.Username)
	require.NoError(t, err)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/token/refresh", "",
		map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Access)
	assert.NotEmpty(t, body.Refresh)
	assert.NotEqual(t, refresh, body.Refresh)

	// The spent token is revoked and cannot be replayed.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/token/refresh", "",
		map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The rotated token still works.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/token/refresh", "",
		map[string]string{"refresh": body.Refresh})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	srv, app := newTestServer(t)
	_, access := registerUser(t, srv, "alice")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/token/refresh", "",
		map[string]string{"refresh": access})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	srv, app := newTestServer(t)
	user, _ := registerUser(t, srv, "alice")

	_, refresh, err := srv.generateTokenPair(user.ID, user.Username)
	require.NoError(t, err)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me/account", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	srv, app := newTestServerWithRedis(t, rdb)

	user, access := registerUser(t, srv, "alice")
	_, refresh, err := srv.generateTokenPair(user.ID, user.Username)
	require.NoError(t, err)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/logout", access,
		map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/token/refresh", "",
		map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logging out an already-invalid token is still a success.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/logout", access,
		map[string]string{"refresh": "garbage"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRefreshAfterAccountDeleted(t *testing.T) {
	srv, app := newTestServer(t)
	user, access := registerUser(t, srv, "alice")

	_, refresh, err := srv.generateTokenPair(user.ID, user.Username)
	require.NoError(t, err)

	resp := doJSON(t, app, http.MethodDelete, "/api/users/me/account", access, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/token/refresh", "",
		map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
