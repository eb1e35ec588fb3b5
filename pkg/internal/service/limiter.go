package service

import (
	"sync"

	"github.com/yeisme/vaultshare/pkg/configs"
	"github.com/yeisme/vaultshare/pkg/internal/ratelimit"
)

var (
	limiterOnce sync.Once
	procLimiter *ratelimit.Limiter
)

// DepositLimiter 进程级投递限流器单例。计数必须跨请求共享，
// 不能随 handler 每次新建.
func DepositLimiter() *ratelimit.Limiter {
	limiterOnce.Do(func() {
		cfg := configs.GetConfig().DepositLimit
		if cfg.PerIPPerMinute <= 0 {
			cfg.PerIPPerMinute = configs.DefaultDepositPerIPPerMinute
		}

		if cfg.PerSharePerHour <= 0 {
			cfg.PerSharePerHour = configs.DefaultDepositPerSharePerHour
		}

		procLimiter = ratelimit.New(ratelimit.Config{
			PerIPPerMinute:  cfg.PerIPPerMinute,
			PerSharePerHour: cfg.PerSharePerHour,
		})
	})

	return procLimiter
}
