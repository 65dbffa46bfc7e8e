package middleware

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"questhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if the store is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if the store is unavailable.
	FailClosed
)

// RateLimitStore tracks a sliding window of request timestamps per key.
// Implementations must be safe for concurrent use; the Redis-backed store
// lets multiple instances share one atomically-checked budget.
type RateLimitStore interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// RedisRateLimitStore implements a sliding window over a Redis sorted set.
type RedisRateLimitStore struct {
	rdb *redis.Client
}

// NewRedisRateLimitStore creates a new RedisRateLimitStore
func NewRedisRateLimitStore(rdb *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{rdb: rdb}
}

func (s *RedisRateLimitStore) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if s.rdb == nil {
		return false, 0, fmt.Errorf("redis client is nil")
	}

	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := "rl:" + key

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if countCmd.Val() >= int64(limit) {
		// Retry once the oldest entry in the window ages out.
		oldest, err := s.rdb.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		retryAfter := window
		if err == nil && len(oldest) == 1 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			retryAfter = oldestAt.Add(window).Sub(now)
			if retryAfter <= 0 {
				retryAfter = time.Second
			}
		}
		return false, retryAfter, nil
	}

	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
	pipe = s.rdb.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}

// MemoryRateLimitStore is the process-local fallback used in tests and
// single-instance deployments.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemoryRateLimitStore creates a new MemoryRateLimitStore
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{windows: make(map[string][]time.Time)}
}

func (s *MemoryRateLimitStore) Take(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-window)

	stamps := s.windows[key]
	// Drop entries that aged out of the window.
	i := sort.Search(len(stamps), func(i int) bool { return stamps[i].After(windowStart) })
	stamps = stamps[i:]

	if len(stamps) >= limit {
		s.windows[key] = stamps
		retryAfter := stamps[0].Add(window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return false, retryAfter, nil
	}

	s.windows[key] = append(stamps, now)
	return true, 0, nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// It defaults to FailOpen policy.
// Rate limiting is disabled when APP_ENV is "test", "development" or "stress"
// so dev and load test workflows are not throttled.
func RateLimit(store RateLimitStore, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(store, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(store RateLimitStore, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
		switch env {
		case "test", "development", "stress":
			return c.Next()
		}

		ctx := c.UserContext()

		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		// Use the provided name or the request path as the resource identifier
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, retryAfter, err := store.Take(ctx, fmt.Sprintf("%s:%s", resource, id), limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit store unavailable, failing closed",
					"path", c.Path(), "resource", resource, "err", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			// Default FailOpen
			return c.Next()
		}

		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitError(retryAfter))
		}
		return c.Next()
	}
}
