// Package kv 提供响应缓存等短 TTL 数据的键值存储接口与实现.
// 通过工厂注册表按配置选择后端：memory（默认）、redis、nats、groupcache.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/vaultshare/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期。调用方（如缓存层）据此区分未命中与真实故障.
var ErrKeyNotFound = errors.New("key not found")

type Client struct {
	KVStore
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值；不存在或过期返回 ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl<=0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 获取所有键（调试用）.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config *configs.KVConfig) (KVStore, error)

// kvFactories 存储 KV 类型到工厂的映射.
var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config *configs.KVConfig) (KVStore, error) {
	factory, exists := kvFactories[kvType]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// New 按全局配置创建 KV 客户端.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().KV

	store, err := NewKVStore(ctx, KVType(cfg.Type), &cfg)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store}, nil
}
