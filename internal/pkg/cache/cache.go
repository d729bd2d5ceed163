package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to Redis: %v", err)
	} else {
		log.Infof("[Cache] Successfully connected to Redis: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

const (
	orderStatusKeyPrefix  = "order:status:"
	DefaultOrderStatusTTL = 24 * time.Hour
)

// OrderStatusCache keeps terminal order states close to the status poll
// endpoint so waiting checkouts do not hit the database every few seconds.
type OrderStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOrderStatusCache(client *redis.Client, ttl time.Duration) *OrderStatusCache {
	if ttl <= 0 {
		ttl = DefaultOrderStatusTTL
	}
	return &OrderStatusCache{client: client, ttl: ttl}
}

func OrderStatusKey(orderID uint) string {
	return orderStatusKeyPrefix + strconv.FormatUint(uint64(orderID), 10)
}

// GetStatus returns the cached status and whether there was one.
func (c *OrderStatusCache) GetStatus(ctx context.Context, orderID uint) (string, bool, error) {
	val, err := c.client.Get(ctx, OrderStatusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *OrderStatusCache) SetStatus(ctx context.Context, orderID uint, status string) error {
	return c.client.Set(ctx, OrderStatusKey(orderID), status, c.ttl).Err()
}
