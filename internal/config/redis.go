package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis. It returns nil, nil when redis is not configured.
func NewRedisClient(cfg *Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		log.Println("⚠️ REDIS_ADDR not set, recovery codes will be kept in memory")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("✅ Redis connected [%s]", cfg.Redis.Addr)
	return client, nil
}
