package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AssetKeyPrefix   = "asset:%d"
	ProfileKeyPrefix = "profile:%d"
	FeedKeyPrefix    = "feed:v%d:%s"
	FeedVersionKey   = "feed:version"
	CatalogKey       = "catalog:v1"
)

const (
	AssetTTL   = 10 * time.Minute
	ProfileTTL = 5 * time.Minute
	FeedTTL    = 1 * time.Minute
	CatalogTTL = time.Hour
)

func AssetKey(assetID uint) string {
	return fmt.Sprintf(AssetKeyPrefix, assetID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// FeedKey scopes a feed page key to the current feed version so that a
// single INCR on FeedVersionKey invalidates every cached page.
func FeedKey(ctx context.Context, query string) string {
	var version int64
	if client != nil {
		if v, err := client.Get(ctx, FeedVersionKey).Int64(); err == nil {
			version = v
		}
	}
	return fmt.Sprintf(FeedKeyPrefix, version, query)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateAsset(ctx context.Context, assetID uint) {
	Invalidate(ctx, AssetKey(assetID))
}

func InvalidateProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, ProfileKey(userID))
}

// InvalidateFeed retires all cached feed pages.
func InvalidateFeed(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, FeedVersionKey)
	}
}
