package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RateLimiter limits requests per client IP over a fixed window, backed by
// redis so limits hold across replicas
type RateLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
	logger *zap.Logger
}

// NewRateLimiter creates a limiter allowing max requests per window
func NewRateLimiter(rdb *redis.Client, max int64, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		max:    max,
		window: window,
		logger: logger,
	}
}

// Limit is the echo middleware. When redis is unreachable requests pass
// through, availability wins over throttling.
func (rl *RateLimiter) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		key := fmt.Sprintf("ratelimit:%s", c.RealIP())

		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			rl.logger.Warn("rate limiter unavailable", zap.Error(err))
			return next(c)
		}

		if count == 1 {
			if err = rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
				rl.logger.Warn("can't set rate limit expiry", zap.Error(err))
			}
		}

		if count > rl.max {
			return echo.NewHTTPError(http.StatusTooManyRequests,
				"Too many requests from this IP, please try again later!")
		}

		return next(c)
	}
}
