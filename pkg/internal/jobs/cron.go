// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/vaultshare/pkg/configs"
	ctxPkg "github.com/yeisme/vaultshare/pkg/context"
	"github.com/yeisme/vaultshare/pkg/internal/service"
	"github.com/yeisme/vaultshare/pkg/internal/storage"
	"github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每小时清理已过期的分享
//   - 每天 04:30 裁剪保留期之外的访问日志
//   - 按配置间隔清理限流器中过期的窗口条目
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobSharePurge, CronSharePurge, func(ctx context.Context) {
		runSharePurge(ctx)
	}, baseCtx)

	_ = sched.AddCron(JobLogRetention, CronLogRetention, func(ctx context.Context) {
		runLogRetention(ctx)
	}, baseCtx)

	sweep := limiterSweepCron(configs.GetConfig().DepositLimit.SweepMinutes)
	_ = sched.AddCron(JobLimiterSweep, sweep, func(ctx context.Context) {
		runLimiterSweep()
	}, baseCtx)

	return nil
}

// limiterSweepCron 由配置的分钟间隔生成 cron 表达式。
// 非法值（<=0 或 >60）回落到默认间隔.
func limiterSweepCron(minutes int) string {
	if minutes <= 0 || minutes > 60 {
		minutes = configs.DefaultDepositSweepMinutes
	}

	return fmt.Sprintf("*/%d * * * *", minutes)
}

// runSharePurge 删除全部已过期的分享。过期分享在访问路径上本就不可用，
// 这里只负责回收存储空间.
func runSharePurge(ctx context.Context) {
	l := log.Logger().With().Str("job", JobSharePurge).Logger()

	svc := service.NewShareService(ctx)

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		l.Error().Err(err).Msg("purge expired shares failed")
		return
	}

	if n > 0 {
		l.Info().Int64("purged", n).Msg("purged expired shares")
	}
}

// runLogRetention 裁剪保留期之外的访问日志行.
func runLogRetention(ctx context.Context) {
	l := log.Logger().With().Str("job", JobLogRetention).Logger()

	svc := service.NewAnalyticsService(ctx)

	n, err := svc.TrimOldLogs(ctx)
	if err != nil {
		l.Error().Err(err).Msg("trim access logs failed")
		return
	}

	if n > 0 {
		l.Info().Int64("trimmed", n).Msg("trimmed old access logs")
	}
}

// runLimiterSweep 清理限流器内存。窗口语义不依赖它，只控内存增长.
func runLimiterSweep() {
	removed := service.DepositLimiter().Sweep()
	if removed > 0 {
		log.Logger().Debug().Str("job", JobLimiterSweep).Int("removed", removed).Msg("swept limiter windows")
	}
}
