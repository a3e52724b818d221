package database

import (
	"context"
	"fmt"
	"site-inventory/internal/config"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects the cache used for commit progress.
func NewRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.GetRedisAddr(), err)
	}

	return client, nil
}
