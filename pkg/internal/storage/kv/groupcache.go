package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/vaultshare/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现。groupcache 没有原生 TTL，
// 值用 ttl 包装并在读路径上判定过期.
type GroupcacheKV struct {
	cache  *groupcache.Group    // Groupcache 缓存组
	peers  *groupcache.HTTPPool // 对等节点池
	getter groupcache.Getter    // 获取器
	data   map[string][]byte    // 本地存储数据
	mu     sync.RWMutex         // 保护 data 的读写锁
}

// groupcacheGetter 实现 groupcache.Getter 接口.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(ctx context.Context, key string, dest groupcache.Sink) error {
	g.kv.mu.RLock()
	value, exists := g.kv.data[key]
	g.kv.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

// NewGroupcacheKV 创建 Groupcache KV 实例.
func NewGroupcacheKV(ctx context.Context, config *configs.KVConfig) (KVStore, error) {
	if config == nil {
		return nil, fmt.Errorf("missing Groupcache config")
	}

	gcConfig := config.Groupcache

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
	}

	kv.getter = &groupcacheGetter{kv: kv}
	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, kv.getter)

	// 如果有对等节点，设置 HTTP 池
	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	return kv, nil
}

// Get 获取键的值；过期条目从本地表移除并按未命中处理.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := g.cache.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data))
	if err != nil {
		return nil, ErrKeyNotFound
	}

	val, expired, _, derr := decodeWithTTL(data, time.Now())
	if derr != nil {
		return nil, derr
	}

	if expired {
		_ = g.Delete(ctx, key)

		return nil, ErrKeyNotFound
	}

	// 返回副本
	result := make([]byte, len(val))
	copy(result, val)

	return result, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = make([]byte, len(encoded))
	copy(g.data[key], encoded)

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	g.mu.RLock()
	value, exists := g.data[key]
	g.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if _, expired, _, derr := decodeWithTTL(value, time.Now()); derr == nil && expired {
		return false, nil
	}

	return true, nil
}

// Keys 获取所有键.
func (g *GroupcacheKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))

	for key := range g.data {
		if pattern == "" || key == pattern {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close 关闭缓存.
func (g *GroupcacheKV) Close() error {
	// Groupcache 没有显式的关闭方法
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
