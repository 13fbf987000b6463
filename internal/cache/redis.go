package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client stays nil when REDIS_URL is unset.
var Client *redis.Client

// InitRedis connects to REDIS_URL, which may be a redis:// URL or a host:port.
func InitRedis(ctx context.Context) {
	raw := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if raw == "" {
		log.Println("REDIS_URL not set, skipping Redis connection")
		return
	}
	opts, err := redisOptions(raw)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	Client = client
	log.Println("Connected to Redis")
}

func redisOptions(raw string) (*redis.Options, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: raw}, nil
}
