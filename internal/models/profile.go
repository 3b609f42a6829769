package models

import (
	"time"
)

// Gender is the profile gender enum.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

// ValidGender reports whether g is one of the accepted enum values.
func ValidGender(g Gender) bool {
	switch g {
	case GenderUnset, GenderFemale, GenderMale, GenderOther:
		return true
	}
	return false
}

// Profile is the one-to-one public companion of a User.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Picture   string    `json:"picture"`
	Bio       string    `gorm:"size:160" json:"bio"`
	Gender    Gender    `gorm:"type:varchar(10);default:''" json:"gender"`
	Country   string    `gorm:"size:2" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// FollowerCount and FollowingCount are not persisted; computed at query time.
	FollowerCount  int `gorm:"->" json:"follower_count"`
	FollowingCount int `gorm:"->" json:"following_count"`
}

// Follow is a directed edge in the social graph: FollowerID follows ProfileID.
// The combination must be unique; a profile never follows itself.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProfileID  uint      `gorm:"not null;uniqueIndex:idx_profile_follower" json:"profile_id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_profile_follower" json:"follower_id"`
	CreatedAt  time.Time `json:"created_at"`

	Profile  Profile `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"-"`
	Follower Profile `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "profile_followers"
}
