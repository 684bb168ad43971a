package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Config interface {
	GetAddr() string
	GetPassword() string
	GetDB() int
}

// New connects to Redis and pings it. An empty address yields nil, nil.
func New(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.GetAddr() == "" {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.GetPassword(),
		DB:           cfg.GetDB(),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
