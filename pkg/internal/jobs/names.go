package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobSharePurge   = "share.purge_expired"
	JobLogRetention = "access_log.retention"
	JobLimiterSweep = "deposit_limit.sweep"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
// 限流器清理的间隔来自配置（deposit_limit.sweep_minutes），见 limiterSweepCron.
const (
	CronSharePurge   = "0 * * * *"  // 每小时整点清理过期分享
	CronLogRetention = "30 4 * * *" // 每天 04:30 裁剪访问日志
)
