// Package ratelimit 实现投递上传的双维度固定窗口限流：
// (clientIP, token) 的 60s 窗口与 token 的 3600s 窗口。
// 仅进程内有效，重启即清零；横向扩展需要外部共享计数器，超出本包范围。
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	ipWindowLength    = time.Minute
	shareWindowLength = time.Hour

	// DefaultSweepInterval 后台清理间隔，与窗口长度无关，仅用于限制内存。
	DefaultSweepInterval = 5 * time.Minute
)

// Config 限流阈值配置。
type Config struct {
	// PerIPPerMinute 每个 (clientIP, token) 每分钟允许的上传单元数。
	PerIPPerMinute int
	// PerSharePerHour 每个 token 每小时允许的上传单元数。
	PerSharePerHour int
}

// Result 一次 Check 的判定结果。
type Result struct {
	Allowed           bool   `json:"allowed"`
	Remaining         int    `json:"remaining"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// window 固定窗口计数器。windowStart 早于窗口长度即视为过期，下次访问惰性重置。
type window struct {
	count       int
	windowStart time.Time
}

func (w *window) expired(now time.Time, length time.Duration) bool {
	return now.Sub(w.windowStart) >= length
}

// Limiter 进程内双维度限流器。计数表是跨请求共享的可变状态，由互斥锁保护。
type Limiter struct {
	mu     sync.Mutex
	ip     map[string]*window // key: ip + "|" + token
	share  map[string]*window // key: token
	config Config
	now    func() time.Time // 可在测试中替换
}

// New 创建 Limiter。
func New(cfg Config) *Limiter {
	return &Limiter{
		ip:     make(map[string]*window),
		share:  make(map[string]*window),
		config: cfg,
		now:    time.Now,
	}
}

// Check 只读地检查当前计数，不消耗配额。IP 维度先于 share 维度判定，
// 更细粒度的限制先失败。
func (l *Limiter) Check(clientIP, token string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	ipCount := l.currentCount(l.ip, ipKey(clientIP, token), now, ipWindowLength)
	if ipCount >= l.config.PerIPPerMinute {
		return Result{
			Allowed:           false,
			Remaining:         0,
			RetryAfterSeconds: l.retryAfter(l.ip, ipKey(clientIP, token), now, ipWindowLength),
			Reason:            "per-ip upload limit reached",
		}
	}

	shareCount := l.currentCount(l.share, token, now, shareWindowLength)
	if shareCount >= l.config.PerSharePerHour {
		return Result{
			Allowed:           false,
			Remaining:         0,
			RetryAfterSeconds: l.retryAfter(l.share, token, now, shareWindowLength),
			Reason:            "share upload limit reached",
		}
	}

	return Result{
		Allowed:   true,
		Remaining: min(l.config.PerIPPerMinute-ipCount, l.config.PerSharePerHour-shareCount),
	}
}

// Record 记录一个实际完成的上传单元。每个被接受的单元恰好调用一次，
// 且只在对应 Check 返回 allowed 之后调用。
func (l *Limiter) Record(clientIP, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	l.bump(l.ip, ipKey(clientIP, token), now, ipWindowLength)
	l.bump(l.share, token, now, shareWindowLength)
}

// Sweep 移除窗口早已过期的条目，返回移除数量。只为限制内存增长，
// 窗口语义本身不依赖它。
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0

	for k, w := range l.ip {
		if w.expired(now, ipWindowLength) {
			delete(l.ip, k)

			removed++
		}
	}

	for k, w := range l.share {
		if w.expired(now, shareWindowLength) {
			delete(l.share, k)

			removed++
		}
	}

	return removed
}

// Size 返回当前条目总数（监控用）。
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.ip) + len(l.share)
}

// currentCount 返回键的有效计数；过期窗口按 0 计，不在读路径上做修改。
func (l *Limiter) currentCount(m map[string]*window, key string, now time.Time, length time.Duration) int {
	w, ok := m[key]
	if !ok || w.expired(now, length) {
		return 0
	}

	return w.count
}

// retryAfter 估算窗口剩余秒数，向上取整且至少 1 秒。
func (l *Limiter) retryAfter(m map[string]*window, key string, now time.Time, length time.Duration) int {
	w, ok := m[key]
	if !ok {
		return 1
	}

	rest := w.windowStart.Add(length).Sub(now)
	if rest <= 0 {
		return 1
	}

	secs := int((rest + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	return secs
}

// bump 惰性重置过期窗口后自增计数。
func (l *Limiter) bump(m map[string]*window, key string, now time.Time, length time.Duration) {
	w, ok := m[key]
	if !ok || w.expired(now, length) {
		m[key] = &window{count: 1, windowStart: now}
		return
	}

	w.count++
}

func ipKey(clientIP, token string) string {
	return fmt.Sprintf("%s|%s", clientIP, token)
}
