package middlewares

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"tagserver/game"
)

// actionLimit is a fixed-window quota for one action type.
type actionLimit struct {
	max    int
	window time.Duration
}

// defaultLimits throttle the engine-facing actions. Location updates are
// the chattiest and get the widest budget.
var defaultLimits = map[string]actionLimit{
	"join":     {max: 10, window: time.Minute},
	"start":    {max: 5, window: time.Minute},
	"tag":      {max: 30, window: time.Minute},
	"location": {max: 120, window: time.Minute},
}

// Limiter is the redis-backed abuse check the engine consults before
// mutating operations. It implements game.PermissionChecker.
type Limiter struct {
	rdb    *redis.Client
	logger *zap.Logger
	limits map[string]actionLimit
}

// NewLimiter builds a limiter with the default per-action quotas.
func NewLimiter(rdb *redis.Client, logger *zap.Logger) *Limiter {
	return &Limiter{rdb: rdb, logger: logger, limits: defaultLimits}
}

// Allow counts the action in a fixed window keyed by actor and action.
// Redis being unreachable fails open: gameplay must not stall on the
// limiter.
func (l *Limiter) Allow(ctx context.Context, actorID, action string) (game.Decision, error) {
	limit, ok := l.limits[action]
	if !ok {
		return game.Decision{Allowed: true}, nil
	}
	key := fmt.Sprintf("ratelimit:%s:%s", action, actorID)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable", zap.Error(err))
		return game.Decision{Allowed: true}, nil
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, limit.window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit expiry", zap.Error(err))
		}
	}
	if count <= int64(limit.max) {
		return game.Decision{Allowed: true}, nil
	}

	retryAfter := limit.window
	if ttl, err := l.rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		retryAfter = ttl
	}
	return game.Decision{Allowed: false, RetryAfter: retryAfter}, nil
}
