package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"jrg-backend/shared/config"
)

var ErrCacheMiss = errors.New("cache miss")

// Store is the key-value surface the security layer depends on. Satisfied
// by CacheManager in production and by mocks in tests.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// CacheManager wraps the Redis client used for rate-limit counters and
// short-lived form tokens.
type CacheManager struct {
	client *redis.Client
}

// incrWindowScript bumps a counter and stamps the window TTL only on the
// first hit, so INCR and EXPIRE cannot race across concurrent requests.
var incrWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// NewCacheManager connects to Redis and verifies the connection.
func NewCacheManager(cfg *config.Config) (*CacheManager, error) {
	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Printf("✅ Redis connected - %s:%s DB:%d", cfg.RedisHost, cfg.RedisPort, redisDB)

	return &CacheManager{client: client}, nil
}

// Get returns the value for key, or ErrCacheMiss when the key is absent.
func (cm *CacheManager) Get(ctx context.Context, key string) (string, error) {
	result, err := cm.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return result, nil
}

func (cm *CacheManager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return cm.client.Set(ctx, key, value, ttl).Err()
}

func (cm *CacheManager) Delete(ctx context.Context, key string) error {
	return cm.client.Del(ctx, key).Err()
}

// IncrementWindow atomically increments the fixed-window counter for key
// and returns the count within the current window.
func (cm *CacheManager) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	result, err := incrWindowScript.Run(ctx, cm.client, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type %T", result)
	}
	return count, nil
}

// Close closes the underlying Redis connection.
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
