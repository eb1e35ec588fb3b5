package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/vaultshare/pkg/internal/model"
)

func newTestAnalytics(t *testing.T) (*ShareService, *AnalyticsService) {
	t.Helper()

	shares := newTestShareService(t)

	return shares, &AnalyticsService{dbc: shares.dbc}
}

func TestLogAccessParsesUA(t *testing.T) {
	_, svc := newTestAnalytics(t)
	ctx := context.Background()

	const chromeWin = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	if err := svc.LogAccess(ctx, "sh_t1", "alice", time.Now(), chromeWin, "https://example.com/page", "DE", "Berlin"); err != nil {
		t.Fatalf("LogAccess: %v", err)
	}

	var row model.ShareAccessLog
	if err := svc.dbc.GetDB().First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}

	if row.Device != "desktop" || row.Browser != "Chrome" || row.OS != "Windows" {
		t.Errorf("parsed UA = %s/%s/%s", row.Device, row.Browser, row.OS)
	}

	if row.Owner != "alice" || row.Country != "DE" || row.City != "Berlin" {
		t.Errorf("row metadata = %+v", row)
	}
}

// seedLogs 写入一批可预期的访问日志.
func seedLogs(t *testing.T, svc *AnalyticsService, token, owner string, n int, age time.Duration, ua string) {
	t.Helper()

	at := time.Now().UTC().Add(-age)
	for range n {
		if err := svc.LogAccess(context.Background(), token, owner, at, ua, "", "FR", ""); err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}
}

const (
	uaIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1"
	uaFirefox = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

func TestShareAnalytics(t *testing.T) {
	shares, svc := newTestAnalytics(t)
	ctx := context.Background()

	resp, err := shares.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	token := resp.Share.Token

	seedLogs(t, svc, token, "alice", 3, time.Hour, uaIPhone)
	seedLogs(t, svc, token, "alice", 2, 2*time.Hour, uaFirefox)
	// 窗口之外的行不计入
	seedLogs(t, svc, token, "alice", 5, 40*24*time.Hour, uaFirefox)

	out, err := svc.ShareAnalytics(ctx, "alice", token, 30)
	if err != nil {
		t.Fatalf("ShareAnalytics: %v", err)
	}

	if out.TotalViews != 5 {
		t.Errorf("total views = %d, want 5 (window filtered)", out.TotalViews)
	}

	wantDevices := map[string]int64{"mobile": 3, "desktop": 2}
	for _, item := range out.ByDevice {
		if wantDevices[item.Key] != item.Count {
			t.Errorf("device %q count = %d, want %d", item.Key, item.Count, wantDevices[item.Key])
		}
	}

	if len(out.ByDevice) != 2 {
		t.Errorf("device buckets = %d, want 2", len(out.ByDevice))
	}

	if len(out.Recent) != 5 {
		t.Errorf("recent events = %d, want 5", len(out.Recent))
	}
	// 降序排列，最新在前
	if len(out.Recent) >= 2 && out.Recent[0].AccessedAt.Before(out.Recent[1].AccessedAt) {
		t.Error("recent events not sorted newest first")
	}
}

func TestShareAnalyticsDailyRollup(t *testing.T) {
	shares, svc := newTestAnalytics(t)
	ctx := context.Background()

	resp, err := shares.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	token := resp.Share.Token

	// 三个日历日：时间点两两相差整 24h，无论当前时刻都落在不同日期
	seedLogs(t, svc, token, "alice", 3, time.Hour, uaFirefox)
	seedLogs(t, svc, token, "alice", 2, 25*time.Hour, uaFirefox)
	seedLogs(t, svc, token, "alice", 1, 49*time.Hour, uaIPhone)

	out, err := svc.ShareAnalytics(ctx, "alice", token, 30)
	if err != nil {
		t.Fatalf("ShareAnalytics: %v", err)
	}

	if out.UniqueDays != 3 {
		t.Errorf("unique days = %d, want 3", out.UniqueDays)
	}

	if len(out.ByDay) != 3 {
		t.Fatalf("day buckets = %d, want 3", len(out.ByDay))
	}

	var sum int64
	for _, day := range out.ByDay {
		if day.Count <= 0 {
			t.Errorf("day %q count = %d, want > 0", day.Key, day.Count)
		}

		sum += day.Count
	}

	if sum != 6 || sum != out.TotalViews {
		t.Errorf("per-day counts sum = %d, want 6 (= total views %d)", sum, out.TotalViews)
	}
}

func TestShareAnalyticsOwnership(t *testing.T) {
	shares, svc := newTestAnalytics(t)
	ctx := context.Background()

	resp, err := shares.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	if _, err := svc.ShareAnalytics(ctx, "mallory", resp.Share.Token, 30); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign analytics err = %v, want ErrForbidden", err)
	}

	if _, err := svc.ShareAnalytics(ctx, "alice", "sh_unknown", 30); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown token err = %v, want ErrNotFound", err)
	}
}

func TestOwnerAnalyticsTopShares(t *testing.T) {
	shares, svc := newTestAnalytics(t)
	ctx := context.Background()

	req := readerRequest()
	req.Name = "busy"

	busy, err := shares.CreateShare(ctx, "alice", "", req)
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	quiet, err := shares.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	seedLogs(t, svc, busy.Share.Token, "alice", 4, time.Hour, uaFirefox)
	seedLogs(t, svc, quiet.Share.Token, "alice", 1, time.Hour, uaIPhone)
	// 其他 owner 的流量不计入
	seedLogs(t, svc, "sh_other", "bob", 9, time.Hour, uaFirefox)

	out, err := svc.OwnerAnalytics(ctx, "alice", 30)
	if err != nil {
		t.Fatalf("OwnerAnalytics: %v", err)
	}

	if out.TotalViews != 5 {
		t.Errorf("total views = %d, want 5", out.TotalViews)
	}

	if len(out.TopShares) != 2 {
		t.Fatalf("top shares = %d, want 2", len(out.TopShares))
	}

	if out.TopShares[0].ShareToken != busy.Share.Token || out.TopShares[0].Views != 4 {
		t.Errorf("top share = %+v", out.TopShares[0])
	}

	if out.TopShares[0].DisplayName != "busy" {
		t.Errorf("top share display name = %q", out.TopShares[0].DisplayName)
	}
}

func TestTrimOldLogs(t *testing.T) {
	shares, svc := newTestAnalytics(t)
	ctx := context.Background()

	resp, err := shares.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	token := resp.Share.Token

	seedLogs(t, svc, token, "alice", 2, time.Hour, uaFirefox)
	// 远超默认 180 天保留期
	seedLogs(t, svc, token, "alice", 3, 365*24*time.Hour, uaFirefox)

	n, err := svc.TrimOldLogs(ctx)
	if err != nil {
		t.Fatalf("TrimOldLogs: %v", err)
	}

	if n != 3 {
		t.Errorf("trimmed %d rows, want 3", n)
	}

	var remaining int64
	if err := svc.dbc.GetDB().Model(&model.ShareAccessLog{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if remaining != 2 {
		t.Errorf("remaining rows = %d, want 2", remaining)
	}
}
