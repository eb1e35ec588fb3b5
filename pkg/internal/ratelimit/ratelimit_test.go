package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// newTestLimiter 返回使用可控时钟的 Limiter。
func newTestLimiter(cfg Config, at *time.Time) *Limiter {
	l := New(cfg)
	l.now = func() time.Time { return *at }

	return l
}

// TestCheckIsReadOnly 测试 Check 不消耗配额。
func TestCheckIsReadOnly(t *testing.T) {
	at := time.Now()
	l := newTestLimiter(Config{PerIPPerMinute: 2, PerSharePerHour: 10}, &at)

	for range 5 {
		res := l.Check("1.2.3.4", "sh_a")
		if !res.Allowed || res.Remaining != 2 {
			t.Fatalf("expected repeated checks to stay allowed with remaining=2, got %+v", res)
		}
	}
}

// TestIPWindowLimit 测试 IP 维度限额：第 N 次 Record 后下一次 Check 拒绝，
// retryAfter 不超过窗口长度，窗口过后恢复。
func TestIPWindowLimit(t *testing.T) {
	at := time.Now()
	l := newTestLimiter(Config{PerIPPerMinute: 3, PerSharePerHour: 100}, &at)

	for range 3 {
		res := l.Check("1.2.3.4", "sh_a")
		if !res.Allowed {
			t.Fatalf("expected allowed before reaching limit, got %+v", res)
		}

		l.Record("1.2.3.4", "sh_a")
	}

	res := l.Check("1.2.3.4", "sh_a")
	if res.Allowed {
		t.Fatalf("expected denial after limit reached, got %+v", res)
	}

	if res.RetryAfterSeconds < 1 || res.RetryAfterSeconds > 60 {
		t.Errorf("expected retryAfter in (0, 60], got %d", res.RetryAfterSeconds)
	}

	// 其它 IP 不受影响
	if !l.Check("5.6.7.8", "sh_a").Allowed {
		t.Error("expected a different IP to be unaffected by the per-ip limit")
	}

	// 窗口过后惰性重置
	at = at.Add(61 * time.Second)

	if res := l.Check("1.2.3.4", "sh_a"); !res.Allowed {
		t.Errorf("expected allowance after window elapsed, got %+v", res)
	}
}

// TestShareWindowLimit 测试 share 维度在多个 IP 之间共享的小时限额。
func TestShareWindowLimit(t *testing.T) {
	at := time.Now()
	l := newTestLimiter(Config{PerIPPerMinute: 100, PerSharePerHour: 4}, &at)

	ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}
	for _, ip := range ips {
		l.Record(ip, "sh_b")
	}

	res := l.Check("10.0.0.5", "sh_b")
	if res.Allowed {
		t.Fatalf("expected share-wide denial, got %+v", res)
	}

	if res.Reason != "share upload limit reached" {
		t.Errorf("unexpected reason %q", res.Reason)
	}

	if res.RetryAfterSeconds < 1 || res.RetryAfterSeconds > 3600 {
		t.Errorf("expected retryAfter in (0, 3600], got %d", res.RetryAfterSeconds)
	}

	// 不同 share 不受影响
	if !l.Check("10.0.0.5", "sh_other").Allowed {
		t.Error("expected a different share to be unaffected")
	}
}

// TestIPScopeCheckedFirst 测试同时超限时 IP 维度先报。
func TestIPScopeCheckedFirst(t *testing.T) {
	at := time.Now()
	l := newTestLimiter(Config{PerIPPerMinute: 1, PerSharePerHour: 1}, &at)

	l.Record("1.1.1.1", "sh_c")

	res := l.Check("1.1.1.1", "sh_c")
	if res.Allowed || res.Reason != "per-ip upload limit reached" {
		t.Errorf("expected per-ip denial first, got %+v", res)
	}
}

// TestRemaining 测试 Remaining 取两个维度的较小值。
func TestRemaining(t *testing.T) {
	at := time.Now()
	l := newTestLimiter(Config{PerIPPerMinute: 10, PerSharePerHour: 3}, &at)

	l.Record("2.2.2.2", "sh_d")

	if res := l.Check("2.2.2.2", "sh_d"); res.Remaining != 2 {
		t.Errorf("expected remaining=2 (share scope is tighter), got %+v", res)
	}
}

// TestSweep 测试后台清理仅移除窗口早已过期的条目，且不影响语义。
func TestSweep(t *testing.T) {
	at := time.Now()
	l := newTestLimiter(Config{PerIPPerMinute: 5, PerSharePerHour: 5}, &at)

	l.Record("3.3.3.3", "sh_e")

	if n := l.Sweep(); n != 0 {
		t.Errorf("expected nothing swept inside windows, got %d", n)
	}

	at = at.Add(2 * time.Hour)

	if n := l.Sweep(); n != 2 {
		t.Errorf("expected both ip and share entries swept, got %d", n)
	}

	if l.Size() != 0 {
		t.Errorf("expected empty maps after sweep, size=%d", l.Size())
	}

	if res := l.Check("3.3.3.3", "sh_e"); !res.Allowed || res.Remaining != 5 {
		t.Errorf("expected fresh allowance after sweep, got %+v", res)
	}
}

// TestConcurrentRecord 测试并发 Record 计数不丢失。
func TestConcurrentRecord(t *testing.T) {
	l := New(Config{PerIPPerMinute: 1000, PerSharePerHour: 1000})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			l.Record("9.9.9.9", "sh_f")
		}()
	}

	wg.Wait()

	if res := l.Check("9.9.9.9", "sh_f"); res.Remaining != 900 {
		t.Errorf("expected remaining=900 after 100 concurrent records, got %+v", res)
	}
}
