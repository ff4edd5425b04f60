package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix = "profile:"
	FeedKeyPrefix    = "feed:"
)

const (
	ProfileTTL = 5 * time.Minute
	FeedTTL    = 1 * time.Minute
)

// ProfileKey builds the cache key for a profile lookup. The query is either
// an ObjectID hex string or a username, matching the lookup endpoint.
func ProfileKey(query string) string {
	return ProfileKeyPrefix + query
}

// FeedKey builds the cache key for a user's home feed. The page limit is
// part of the key so a small page is never served from a larger cached one
// (or the other way around). Handlers cap the limit, keeping key cardinality
// bounded.
func FeedKey(userID string, limit int) string {
	return fmt.Sprintf("%s%s:%d", FeedKeyPrefix, userID, limit)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateProfile drops every cache entry that can serve a stale view of
// the user: the id-keyed and username-keyed profile entries.
func InvalidateProfile(ctx context.Context, userID string, usernames ...string) {
	keys := []string{ProfileKey(userID)}
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, ProfileKey(u))
		}
	}
	Invalidate(ctx, keys...)
}
