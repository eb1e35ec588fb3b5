package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	DefaultStoreEndpoint = "localhost:9000" // 默认对象存储端点
	DefaultStoreUseSSL   = false            // 默认是否使用SSL
	DefaultStoreRegion   = "us-east-1"      // 默认区域
	DefaultBucketPrefix  = "vault-"         // 仓库桶名前缀
)

// StoreConfig 远端层级存储（S3/MinIO 兼容）配置.
// 访问凭证不在这里：每个分享携带自己加密存储的凭证，
// 解析时临时解密并构造短生命周期客户端.
type StoreConfig struct {
	Endpoint     string `mapstructure:"endpoint"      rule:"required"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	Region       string `mapstructure:"region"`
	BucketPrefix string `mapstructure:"bucket_prefix"`
}

// GetEndpointURL 获取完整的端点URL.
func (c *StoreConfig) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置远端存储配置的默认值.
func (c *StoreConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("store.endpoint", DefaultStoreEndpoint)
	v.SetDefault("store.use_ssl", DefaultStoreUseSSL)
	v.SetDefault("store.region", DefaultStoreRegion)
	v.SetDefault("store.bucket_prefix", DefaultBucketPrefix)
}
