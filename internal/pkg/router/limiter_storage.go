package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"

	"github.com/le10del10/paybridge/internal/pkg/config"
)

// Redis database used for rate limiter counters. Outcome counters use DB 0.
const limiterRedisDB = 1

// NewLimiterStorage returns Redis-backed limiter storage so limits hold
// across replicas. It returns nil when no cache is configured.
func NewLimiterStorage(cfg config.CacheConfig) fiber.Storage {
	if !cfg.Enabled() {
		return nil
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: limiterRedisDB,
		Reset:    false,
	})
}
