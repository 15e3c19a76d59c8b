package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/allocation-engine/internal/application/inventory"
)

var _ inventory.Cache = (*RedisClient)(nil)

// RedisClient implementación de inventory.Cache sobre Redis.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient conecta y verifica con PING. El llamador decide si seguir sin caché ante error.
func NewRedisClient(ctx context.Context, addr string) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisClient{rdb: rdb}, nil
}

// NewFromClient envuelve un cliente ya construido.
func NewFromClient(rdb *redis.Client) *RedisClient {
	return &RedisClient{rdb: rdb}
}

// Get recupera el valor de la clave; ok=false si no existe.
func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set guarda el valor con expiración.
func (c *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Delete borra las claves (las inexistentes se ignoran).
func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close libera las conexiones.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
