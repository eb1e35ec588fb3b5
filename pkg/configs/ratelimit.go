package configs

import "github.com/spf13/viper"

const (
	// 默认 HTTP 层速率限制配置.
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100
	DefaultRateLimitKey     = "ip"

	// 默认投递上传限流配置.
	DefaultDepositPerIPPerMinute  = 10
	DefaultDepositPerSharePerHour = 100
	DefaultDepositSweepMinutes    = 5
)

// RateLimitConfig HTTP 层（请求粒度）速率限制配置.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`   // 每秒允许的请求数
	Burst   int     `mapstructure:"burst"` // 突发容量
	// Key 选择限流维度：global（全局）、ip（按客户端IP）、header:Header-Name（按请求头）
	Key string `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
}

// DepositLimitConfig 投递上传（业务单元粒度）双窗口限流配置.
// 单进程内存实现；多实例部署需要外部共享计数器，不在本服务范围内.
type DepositLimitConfig struct {
	PerIPPerMinute  int `mapstructure:"per_ip_per_minute"  rule:"min=1"`
	PerSharePerHour int `mapstructure:"per_share_per_hour" rule:"min=1"`
	SweepMinutes    int `mapstructure:"sweep_minutes"      rule:"min=1,max=60"`
}

func (c *DepositLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("deposit_limit.per_ip_per_minute", DefaultDepositPerIPPerMinute)
	v.SetDefault("deposit_limit.per_share_per_hour", DefaultDepositPerSharePerHour)
	v.SetDefault("deposit_limit.sweep_minutes", DefaultDepositSweepMinutes)
}
