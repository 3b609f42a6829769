package models

import (
	"time"
)

// MaxPostTextLen is the hard limit on post text length.
const MaxPostTextLen = 300

// Post represents a post or a reply (ParentID set). Author is nullable so
// posts outlive deleted accounts.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   *uint  `gorm:"index" json:"user_id"`
	User     *User  `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	ParentID *uint  `gorm:"index" json:"parent_id"`
	Parent   *Post  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"parent,omitempty"`
	Text     string `gorm:"size:300;not null" json:"text"`
	// Published gates visibility in every listing query. Scheduled posts are
	// created unpublished and flipped by the deferred publish transition.
	Published bool        `gorm:"not null;index" json:"published"`
	Tags      []Tag       `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Images    []PostImage `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// LikeCount is not persisted; computed at query time
	LikeCount int `gorm:"->" json:"like_count"`
	// ReplyCount is not persisted; computed at query time
	ReplyCount int `gorm:"->" json:"reply_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->" json:"liked"`
}

// Tag is a free-form label. Names are unique and identity preserving.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// PostImage is an image attached to a post. At most ten per post.
type PostImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Image     string    `gorm:"not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}
