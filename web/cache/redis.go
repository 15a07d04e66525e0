// Package cache provides the Redis-backed store used for rate limiting and
// short-lived response caching. It runs an embedded miniredis when no
// external server is configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache: miss")

var (
	client    *redis.Client
	miniRedis *miniredis.Miniredis
	ctx       = context.Background()
)

// InitRedis connects to redisAddr, or starts an embedded server when it is empty.
func InitRedis(redisAddr string) error {
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		miniRedis = mr
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		logger.Info("Embedded Redis started on ", mr.Addr())
		return nil
	}

	client = redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		client = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", redisAddr, err)
	}
	logger.Info("Connected to external Redis at ", redisAddr)
	return nil
}

// Close closes the client and stops the embedded server if running.
func Close() error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
	}
	return err
}

func ready() error {
	if client == nil {
		return errors.New("redis client not initialized")
	}
	return nil
}

func Set(key string, value any, expiration time.Duration) error {
	if err := ready(); err != nil {
		return err
	}
	return client.Set(ctx, key, value, expiration).Err()
}

func Get(key string) (string, error) {
	if err := ready(); err != nil {
		return "", err
	}
	result, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return result, err
}

func Delete(keys ...string) error {
	if err := ready(); err != nil {
		return err
	}
	return client.Del(ctx, keys...).Err()
}

// IncrWindow increments key and, on the first increment, makes it expire
// after window. It returns the new count and the key's remaining TTL.
func IncrWindow(key string, window time.Duration) (int64, time.Duration, error) {
	if err := ready(); err != nil {
		return 0, 0, err
	}
	n, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		if err := client.Expire(ctx, key, window).Err(); err != nil {
			return n, 0, err
		}
	}
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		return n, 0, err
	}
	return n, ttl, nil
}
