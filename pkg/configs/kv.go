package configs

import (
	"github.com/spf13/viper"
)

// KVConfig 键值存储配置，承载响应缓存等短 TTL 数据.
// 单实例默认进程内 memory；集群部署可切到 redis/nats/groupcache.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Memory     MemoryKVConfig     `mapstructure:"memory"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// MemoryKVConfig 进程内 KV 配置.
type MemoryKVConfig struct {
	// MaxEntries 条目上限，超出时先清过期再逐最旧；0 表示使用默认值
	MaxEntries int `mapstructure:"max_entries" rule:"min=0"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSKVConfig NATS KV 配置.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

// GroupcacheKVConfig Groupcache KV 配置.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"` // 最小 1MB
	Peers      []string `mapstructure:"peers"`
	Self       string   `mapstructure:"self"`
}

// DefaultMemoryKVMaxEntries 进程内 KV 默认条目上限.
const DefaultMemoryKVMaxEntries = 4096

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.memory.max_entries", DefaultMemoryKVMaxEntries)

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)

	v.SetDefault("kv.nats.url", "localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", "vaultshare-kv")

	const defaultGroupcacheCacheBytes = 64 * 1024 * 1024 // 64MB

	v.SetDefault("kv.groupcache.name", "vaultshare-cache")
	v.SetDefault("kv.groupcache.cache_bytes", defaultGroupcacheCacheBytes)
	v.SetDefault("kv.groupcache.peers", []string{})
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
}
