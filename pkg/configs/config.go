// Package configs 管理应用程序配置，包括数据库、远端存储、队列与分享策略的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppVersion 应用版本号.
const AppVersion = "0.1.0"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 服务器端口、超时等
		DB             DBConfig             `mapstructure:"db"`              // 数据库配置
		Store          StoreConfig          `mapstructure:"store"`           // 远端层级存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // 键值存储（响应缓存后端）配置
		Log            LogConfig            `mapstructure:"log"`             // 日志配置
		Auth           AuthConfig           `mapstructure:"auth"`            // Owner 侧认证配置
		Crypto         CryptoConfig         `mapstructure:"crypto"`          // 信封加密主密钥配置
		Share          ShareConfig          `mapstructure:"share"`           // 分享策略配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // HTTP 层限流
		DepositLimit   DepositLimitConfig   `mapstructure:"deposit_limit"`   // 投递上传限流
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 追踪配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 远端存储熔断配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix("VAULTSHARE")
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	// 读取配置；找不到配置文件时退回默认值 + 环境变量
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 主密钥缺失是启动期致命错误，不能降级为请求期错误
	if err := globalConfig.Crypto.Validate(); err != nil {
		return err
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var dbConfig DBConfig

	var storeConfig StoreConfig

	var mqConfig MQConfig

	var kvConfig KVConfig

	var logConfig LogConfig

	var authConfig AuthConfig

	var cryptoConfig CryptoConfig

	var shareConfig ShareConfig

	var rateLimitConfig RateLimitConfig

	var depositLimitConfig DepositLimitConfig

	var metricsConfig MetricsConfig

	var tracingConfig TracingConfig

	var cbConfig CircuitBreakerConfig

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	storeConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	logConfig.setDefaults(v)
	authConfig.setDefaults(v)
	cryptoConfig.setDefaults(v)
	shareConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	depositLimitConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	cbConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

func GetViper() *viper.Viper {
	return appViper
}
