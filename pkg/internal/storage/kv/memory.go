package kv

import (
	"context"
	"sync"
	"time"

	"github.com/yeisme/vaultshare/pkg/configs"
)

// memEntry 带过期时间的值；expiresAt 零值表示不过期.
type memEntry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryKV 进程内 KV 实现，默认后端。条目数有上限：
// 超出时先淘汰过期条目，仍超出则逐最旧写入的条目.
type MemoryKV struct {
	mu         sync.Mutex
	data       map[string]*memEntry
	maxEntries int
	now        func() time.Time // 可在测试中替换
}

// NewMemoryKV 创建进程内 KV 实例.
func NewMemoryKV(ctx context.Context, config *configs.KVConfig) (KVStore, error) {
	maxEntries := configs.DefaultMemoryKVMaxEntries
	if config != nil && config.Memory.MaxEntries > 0 {
		maxEntries = config.Memory.MaxEntries
	}

	return &MemoryKV{
		data:       make(map[string]*memEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}, nil
}

// Get 获取键的值；过期条目当场删除并按未命中处理.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}

	if entry.expired(m.now()) {
		delete(m.data, key)

		return nil, ErrKeyNotFound
	}

	// 返回副本
	result := make([]byte, len(entry.data))
	copy(result, entry.data)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if _, exists := m.data[key]; !exists && len(m.data) >= m.maxEntries {
		m.evict(now)
	}

	entry := &memEntry{
		data:     make([]byte, len(value)),
		storedAt: now,
	}
	copy(entry.data, value)

	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.data[key] = entry

	return nil
}

// evict 先淘汰全部过期条目；仍然满则淘汰最旧写入的一条.
func (m *MemoryKV) evict(now time.Time) {
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
		}
	}

	if len(m.data) < m.maxEntries {
		return
	}

	var (
		oldestKey string
		oldestAt  time.Time
	)

	for k, e := range m.data {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.storedAt
		}
	}

	if oldestKey != "" {
		delete(m.data, oldestKey)
	}
}

// Delete 删除键.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.data[key]
	if !exists {
		return false, nil
	}

	if entry.expired(m.now()) {
		delete(m.data, key)

		return false, nil
	}

	return true, nil
}

// Keys 获取所有未过期的键.
func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	keys := make([]string, 0, len(m.data))

	for k, e := range m.data {
		if e.expired(now) {
			continue
		}

		if pattern == "" || k == pattern {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
