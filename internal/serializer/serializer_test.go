package serializer

import (
	"encoding/json"
	"testing"
	"time"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostFrom(t *testing.T) {
	userID := uint(7)
	parentID := uint(3)
	post := &models.Post{
		ID:       42,
		UserID:   &userID,
		ParentID: &parentID,
		User: &models.User{
			ID:       userID,
			Username: "alice",
			Email:    "alice@example.com",
			Profile:  &models.Profile{ID: 9, UserID: userID, Picture: "pics/alice.png"},
		},
		Text:       "hello",
		Tags:       []models.Tag{{ID: 1, Name: "go"}},
		Images:     []models.PostImage{{ID: 1, Image: "post_images/a.png"}},
		LikeCount:  2,
		ReplyCount: 1,
		Liked:      true,
	}

	out := PostFrom(post)
	assert.Equal(t, uint(42), out.ID)
	assert.Equal(t, &parentID, out.ParentID)
	assert.Equal(t, []string{"go"}, out.Tags)
	assert.Equal(t, []string{"post_images/a.png"}, out.Images)
	assert.True(t, out.Liked)
	require.NotNil(t, out.User)
	assert.Equal(t, "alice", out.User.Username)
	assert.Equal(t, uint(9), out.User.ID)

	// Private fields never leak into the payload.
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "email")
	assert.NotContains(t, string(raw), "alice@example.com")
}

func TestPostFromDeletedAuthor(t *testing.T) {
	out := PostFrom(&models.Post{ID: 1, Text: "orphaned"})
	assert.Nil(t, out.User)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"user":null`)
	// Empty collections serialize as [], not null.
	assert.Contains(t, string(raw), `"tags":[]`)
	assert.Contains(t, string(raw), `"images":[]`)
}

func TestPostDetailFrom(t *testing.T) {
	post := &models.Post{
		ID:     1,
		Text:   "with images",
		Images: []models.PostImage{{ID: 5, Image: "post_images/a.png"}},
	}

	out := PostDetailFrom(post)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"images":[{"id":5,"path":"post_images/a.png"}]`)
}

func TestPostCreatedEchoesPublishAt(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	out := PostCreatedFrom(&models.Post{ID: 1, Text: "later", Published: false}, &at)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"publish_at":"2026-03-01T12:00:00Z"`)
	assert.Contains(t, string(raw), `"published":false`)

	// Immediate posts omit publish_at entirely.
	out = PostCreatedFrom(&models.Post{ID: 2, Text: "now", Published: true}, nil)
	raw, err = json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "publish_at")
}

func TestProfileDetailFrom(t *testing.T) {
	p := &models.Profile{
		ID:             4,
		UserID:         7,
		User:           models.User{ID: 7, Username: "bob", Email: "bob@example.com"},
		Bio:            "hi",
		Gender:         models.GenderOther,
		Country:        "SE",
		FollowerCount:  3,
		FollowingCount: 5,
	}

	out := ProfileDetailFrom(p)
	assert.Equal(t, "bob", out.Username)
	assert.Equal(t, "other", out.Gender)
	assert.Equal(t, 3, out.FollowerCount)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bob@example.com")
}

func TestAccountFrom(t *testing.T) {
	out := AccountFrom(&models.User{ID: 1, Username: "staff", Email: "s@example.com", IsStaff: true})
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"username":"staff","email":"s@example.com","is_staff":true}`, string(raw))
}
