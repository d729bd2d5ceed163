package router

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PixCheckout/app/controllers"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/cache"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
)

// limiterDatabase keeps rate limit counters apart from the status cache (DB 0).
const limiterDatabase = 2

// newLimiterStorage shares rate limit counters between instances through
// Redis. It returns nil (in-memory counters) when Redis is unreachable,
// because the storage driver panics on a failed connection.
func newLimiterStorage() fiber.Storage {
	cacheClient := cache.GetClient()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cacheClient.Ping(ctx).Err(); err != nil {
		log.Warnf("[Router] Redis unavailable, API rate limits are kept in memory: %v", err)
		return nil
	}

	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(cacheClient.Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: cacheClient.Options().Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}

func newAPILimiter(storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        env.GetInt("API_RATE_LIMIT_MAX", 120),
		Expiration: time.Minute,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return controllers.GetClientIP(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}
