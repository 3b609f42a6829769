package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix    = "post:%d"
	ProfileKeyPrefix = "profile:%d"
	PostsListKey     = "posts:list"
)

const (
	PostTTL    = 30 * time.Minute
	ProfileTTL = 5 * time.Minute
	ListTTL    = 30 * time.Second
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(profileID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, profileID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	Invalidate(ctx, PostsListKey)
}

func InvalidateProfile(ctx context.Context, profileID uint) {
	Invalidate(ctx, ProfileKey(profileID))
}

func InvalidatePostsList(ctx context.Context) {
	Invalidate(ctx, PostsListKey)
}
