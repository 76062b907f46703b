package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/le10del10/paybridge/internal/pkg/config"
)

// NewClient connects to Redis/Dragonfly. It returns nil when no cache host
// is configured or the server does not answer; callers treat nil as "no cache".
func NewClient(cfg config.CacheConfig) *redis.Client {
	if !cfg.Enabled() {
		log.Info("[Cache] CACHE_HOST not set, Redis features disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to Redis at %s: %v", cfg.Addr(), err)
		_ = client.Close()
		return nil
	}
	log.Infof("[Cache] Connected to Redis at %s: %s", cfg.Addr(), pong)
	return client
}
