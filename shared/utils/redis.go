package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	RedisClient *redis.Client
	ctx         = context.Background()
)

// tenantIDKey is the single locally persisted key holding the resolved
// tenant id.
const tenantIDKey = "backoffice:tenant_id"

// InitRedis initializes the Redis client
func InitRedis(addr string) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "", // No password by default
		DB:           0,  // Default DB
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test connection
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return nil
}

// CacheSet stores a value in Redis with expiration
func CacheSet(key string, value string, expiration time.Duration) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return RedisClient.Set(ctx, key, value, expiration).Err()
}

// CacheGet retrieves a value from Redis
func CacheGet(key string) (string, error) {
	if RedisClient == nil {
		return "", fmt.Errorf("Redis client not initialized")
	}
	val, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("key not found")
	}
	return val, err
}

// CacheDelete removes a key from Redis
func CacheDelete(key string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return RedisClient.Del(ctx, key).Err()
}

// GetRedisClient returns the Redis client instance (for pub/sub and advanced operations)
func GetRedisClient() *redis.Client {
	return RedisClient
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// TenantIDStore persists the resolved tenant id in Redis. It satisfies the
// tenant resolver's persistence contract.
type TenantIDStore struct{}

// Load returns the persisted tenant id, empty when none was stored.
func (TenantIDStore) Load() string {
	val, err := CacheGet(tenantIDKey)
	if err != nil {
		return ""
	}
	return val
}

// Save persists the tenant id. The key has no expiration: it survives until
// the next tenant switch.
func (TenantIDStore) Save(id string) {
	_ = CacheSet(tenantIDKey, id, 0)
}
