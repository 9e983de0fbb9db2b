// Package repository contains the repository layer for the SPX Analytics API
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis connects to Redis, returning nil when no host is configured
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return redisClient, nil
}
