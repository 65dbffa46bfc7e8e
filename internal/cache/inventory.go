package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	ChallengeKeyPrefix = "challenge:%d"
)

const (
	UserTTL      = 5 * time.Minute
	ChallengeTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ChallengeKey(challengeID uint) string {
	return fmt.Sprintf(ChallengeKeyPrefix, challengeID)
}

// Aside is the cache-aside read path: try the cache, otherwise run load
// and store the result. Cache failures are invisible to callers; only
// load errors propagate.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if client != nil {
		if data, err := client.Get(ctx, key).Bytes(); err == nil {
			if json.Unmarshal(data, dest) == nil {
				return nil
			}
		}
	}

	if err := load(); err != nil {
		return err
	}

	if client != nil {
		if data, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, data, ttl)
		}
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateChallenge(ctx context.Context, challengeID uint) {
	Invalidate(ctx, ChallengeKey(challengeID))
}
