// Package cache 提供基于键值存储的泛型缓存.
//
// 值经 sonic JSON 编解码，TTL 透传给底层 KV（memory/redis 原生支持，
// groupcache/NATS 在值级包装）。缓存未命中以 kv.ErrKeyNotFound 区分于真实故障.
//
// 用法:
//
//	c := cache.NewCache(kvStore)
//	err := cache.Set(ctx, c, "stats:sh_x", stats, 30*time.Second)
//	stats, err := cache.Get[ShareStats](ctx, c, "stats:sh_x")
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/vaultshare/pkg/internal/storage/kv"
)

// Cache 基于 KV 存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{
		kvStore: kvStore,
	}
}

// Get 泛型获取缓存值；未命中返回 kv.ErrKeyNotFound.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet 获取缓存值，如果不存在则通过 getter 计算并回填.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return zero, err
	}

	// 回填失败不影响返回值
	if setErr := Set(ctx, c, key, value, ttl); setErr != nil {
		return value, nil
	}

	return value, nil
}
