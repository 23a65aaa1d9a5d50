package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis creates the session liveness cache client. Returns nil
// without error when no redis host is configured; callers fall back to
// the database path.
func ConnectRedis(cfg *Config) (*redis.Client, error) {
	if cfg.Redis.Host == "" {
		log.Println("ℹ️ Redis not configured, session checks use the database only")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("✅ Redis connected successfully [%s:%s]", cfg.Redis.Host, cfg.Redis.Port)
	return client, nil
}
