package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileResponse struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	Country        string `json:"country"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
}

func TestFollowToggle(t *testing.T) {
	srv, app := newTestServer(t)
	_, aliceToken := registerUser(t, srv, "alice")
	bob, _ := registerUser(t, srv, "bob")

	bobProfileID := profileIDFor(t, srv, bob.ID)
	followURL := fmt.Sprintf("/api/profiles/%d/follow", bobProfileID)

	resp := doJSON(t, app, http.MethodPost, followURL, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Repeating the follow changes nothing.
	resp = doJSON(t, app, http.MethodPost, followURL, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/profiles/%d", bobProfileID), "", nil)
	var bobProfile profileResponse
	decodeBody(t, resp, &bobProfile)
	assert.Equal(t, 1, bobProfile.FollowerCount)
	assert.Equal(t, 0, bobProfile.FollowingCount)

	resp = doJSON(t, app, http.MethodDelete, followURL, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodDelete, followURL, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSelfFollowIsNoOp(t *testing.T) {
	srv, app := newTestServer(t)
	alice, aliceToken := registerUser(t, srv, "alice")

	ownProfileID := profileIDFor(t, srv, alice.ID)
	resp := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/profiles/%d/follow", ownProfileID), aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/profiles/%d", ownProfileID), "", nil)
	var profile profileResponse
	decodeBody(t, resp, &profile)
	assert.Equal(t, 0, profile.FollowerCount)
}

func TestFollowMissingProfile(t *testing.T) {
	srv, app := newTestServer(t)
	_, aliceToken := registerUser(t, srv, "alice")

	resp := doJSON(t, app, http.MethodPost, "/api/profiles/9999/follow", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowersAndFollowingLists(t *testing.T) {
	srv, app := newTestServer(t)
	alice, aliceToken := registerUser(t, srv, "alice")
	bob, bobToken := registerUser(t, srv, "bob")
	carol, _ := registerUser(t, srv, "carol")

	carolProfileID := profileIDFor(t, srv, carol.ID)
	for _, token := range []string{aliceToken, bobToken} {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/profiles/%d/follow", carolProfileID), token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/profiles/%d/followers", carolProfileID), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var followers []profileResponse
	decodeBody(t, resp, &followers)
	usernames := make([]string, 0, len(followers))
	for _, f := range followers {
		usernames = append(usernames, f.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, usernames)

	resp = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/profiles/%d/following", profileIDFor(t, srv, alice.ID)), "", nil)
	var following []profileResponse
	decodeBody(t, resp, &following)
	require.Len(t, following, 1)
	assert.Equal(t, "carol", following[0].Username)

	resp = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/profiles/%d/followers", profileIDFor(t, srv, bob.ID)), "", nil)
	var none []profileResponse
	decodeBody(t, resp, &none)
	assert.Empty(t, none)
}

func TestGetProfilesFilters(t *testing.T) {
	srv, app := newTestServer(t)
	registerUser(t, srv, "alice")
	registerUser(t, srv, "bob")

	resp := doJSON(t, app, http.MethodGet, "/api/profiles/?username=ALI", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var profiles []profileResponse
	decodeBody(t, resp, &profiles)
	require.Len(t, profiles, 1)
	assert.Equal(t, "alice", profiles[0].Username)

	resp = doJSON(t, app, http.MethodGet, "/api/profiles/", "", nil)
	decodeBody(t, resp, &profiles)
	assert.Len(t, profiles, 2)
}

func TestGetProfileNotFound(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/profiles/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
