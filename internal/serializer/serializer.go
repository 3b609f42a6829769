// Package serializer shapes persistent models into API response payloads.
// Handlers never hand models straight to the encoder; each endpoint exposes
// exactly the fields its projection declares.
package serializer

import (
	"time"

	"chirp/internal/models"
)

// Account is the private view of a user, returned only to the user itself.
type Account struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

func AccountFrom(u *models.User) *Account {
	return &Account{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsStaff:  u.IsStaff,
	}
}

// ProfileSummary is the compact author card embedded in posts and listings.
type ProfileSummary struct {
	ID       uint   `json:"id"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Picture  string `json:"picture"`
}

func ProfileSummaryFrom(p *models.Profile) *ProfileSummary {
	return &ProfileSummary{
		ID:       p.ID,
		UserID:   p.UserID,
		Username: p.User.Username,
		Picture:  p.Picture,
	}
}

// ProfileDetail is the full public view of a profile.
type ProfileDetail struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	Username       string    `json:"username"`
	Picture        string    `json:"picture"`
	Bio            string    `json:"bio"`
	Gender         string    `json:"gender"`
	Country        string    `json:"country"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func ProfileDetailFrom(p *models.Profile) *ProfileDetail {
	return &ProfileDetail{
		ID:             p.ID,
		UserID:         p.UserID,
		Username:       p.User.Username,
		Picture:        p.Picture,
		Bio:            p.Bio,
		Gender:         string(p.Gender),
		Country:        p.Country,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		CreatedAt:      p.CreatedAt,
	}
}

func ProfilesFrom(profiles []*models.Profile) []*ProfileDetail {
	out := make([]*ProfileDetail, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ProfileDetailFrom(p))
	}
	return out
}

// Post is the public view of a post or reply. User is null when the author's
// account no longer exists.
type Post struct {
	ID         uint            `json:"id"`
	User       *ProfileSummary `json:"user"`
	ParentID   *uint           `json:"parent_id"`
	Text       string          `json:"text"`
	Tags       []string        `json:"tags"`
	Images     []string        `json:"images"`
	LikeCount  int             `json:"like_count"`
	ReplyCount int             `json:"reply_count"`
	Liked      bool            `json:"liked"`
	CreatedAt  time.Time       `json:"created_at"`
}

func PostFrom(p *models.Post) *Post {
	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tags = append(tags, tag.Name)
	}
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.Image)
	}

	out := &Post{
		ID:         p.ID,
		ParentID:   p.ParentID,
		Text:       p.Text,
		Tags:       tags,
		Images:     images,
		LikeCount:  p.LikeCount,
		ReplyCount: p.ReplyCount,
		Liked:      p.Liked,
		CreatedAt:  p.CreatedAt,
	}
	if p.User != nil {
		out.User = authorFrom(p.User)
	}
	return out
}

func PostsFrom(posts []*models.Post) []*Post {
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostFrom(p))
	}
	return out
}

// PostImageOut is the full image object used by detail views.
type PostImageOut struct {
	ID   uint   `json:"id"`
	Path string `json:"path"`
}

// PostDetail is the single-post view: the list shape with image objects
// instead of bare paths.
type PostDetail struct {
	Post
	Images []PostImageOut `json:"images"`
}

func PostDetailFrom(p *models.Post) *PostDetail {
	images := make([]PostImageOut, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, PostImageOut{ID: img.ID, Path: img.Image})
	}
	return &PostDetail{
		Post:   *PostFrom(p),
		Images: images,
	}
}

// PostCreated is the creation response. PublishAt echoes the requested
// publish time when the post was scheduled instead of published.
type PostCreated struct {
	PostDetail
	Published bool       `json:"published"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
}

func PostCreatedFrom(p *models.Post, publishAt *time.Time) *PostCreated {
	return &PostCreated{
		PostDetail: *PostDetailFrom(p),
		Published:  p.Published,
		PublishAt:  publishAt,
	}
}

func authorFrom(u *models.User) *ProfileSummary {
	s := &ProfileSummary{
		UserID:   u.ID,
		Username: u.Username,
	}
	if u.Profile != nil {
		s.ID = u.Profile.ID
		s.Picture = u.Profile.Picture
	}
	return s
}
