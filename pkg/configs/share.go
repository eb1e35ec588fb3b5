package configs

import "github.com/spf13/viper"

const (
	DefaultUARawMaxLen      = 512              // 存储的原始 UA 最大长度
	DefaultRefererMaxLen    = 512              // 存储的原始 Referer 最大长度
	DefaultRecentEvents     = 50               // 分析接口返回的最近事件条数
	DefaultTopShares        = 10               // owner 汇总中的 top 分享数
	DefaultAnalyticsDays    = 30               // 默认统计窗口（天）
	DefaultMaxAnalyticsDays = 365              // 统计窗口上限（天）
	DefaultLogRetentionDays = 180              // 访问日志保留天数
	DefaultDepositMaxSize   = 25 * 1024 * 1024 // 投递单文件默认大小上限（字节）
	DefaultDepositMaxFiles  = 10               // 单次投递请求的最大文件数
)

// ShareConfig 分享与访问日志策略配置.
type ShareConfig struct {
	UARawMaxLen      int   `mapstructure:"ua_raw_max_len"      rule:"min=32,max=4096"`
	RefererMaxLen    int   `mapstructure:"referer_max_len"     rule:"min=32,max=4096"`
	RecentEvents     int   `mapstructure:"recent_events"       rule:"min=1,max=500"`
	TopShares        int   `mapstructure:"top_shares"          rule:"min=1,max=100"`
	AnalyticsDays    int   `mapstructure:"analytics_days"      rule:"min=1"`
	MaxAnalyticsDays int   `mapstructure:"max_analytics_days"  rule:"min=1"`
	LogRetentionDays int   `mapstructure:"log_retention_days"  rule:"min=1"`
	DepositMaxSize   int64 `mapstructure:"deposit_max_size"    rule:"min=1"`
	DepositMaxFiles  int   `mapstructure:"deposit_max_files"   rule:"min=1,max=100"`
}

func (c *ShareConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("share.ua_raw_max_len", DefaultUARawMaxLen)
	v.SetDefault("share.referer_max_len", DefaultRefererMaxLen)
	v.SetDefault("share.recent_events", DefaultRecentEvents)
	v.SetDefault("share.top_shares", DefaultTopShares)
	v.SetDefault("share.analytics_days", DefaultAnalyticsDays)
	v.SetDefault("share.max_analytics_days", DefaultMaxAnalyticsDays)
	v.SetDefault("share.log_retention_days", DefaultLogRetentionDays)
	v.SetDefault("share.deposit_max_size", DefaultDepositMaxSize)
	v.SetDefault("share.deposit_max_files", DefaultDepositMaxFiles)
}
