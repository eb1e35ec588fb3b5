package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yeisme/vaultshare/pkg/configs"
	ctxPkg "github.com/yeisme/vaultshare/pkg/context"
	"github.com/yeisme/vaultshare/pkg/internal/model"
	"github.com/yeisme/vaultshare/pkg/internal/storage/db"
	"github.com/yeisme/vaultshare/pkg/internal/types"
	"github.com/yeisme/vaultshare/pkg/internal/useragent"
)

const hoursPerDayWindow = 24 * time.Hour

// AnalyticsService 访问日志写入与按需聚合。统计不预计算，
// 全部从原始行即时 group by（日志表按保留期裁剪，见 jobs）.
type AnalyticsService struct {
	dbc *db.Client
}

// NewAnalyticsService 创建分析服务.
func NewAnalyticsService(c context.Context) *AnalyticsService {
	return &AnalyticsService{dbc: ctxPkg.GetDBClient(c)}
}

// LogAccess 写入一条访问日志：截断原始串、解析 UA。
// 由访问事件的订阅方调用，失败只向上返回给订阅循环记日志.
func (s *AnalyticsService) LogAccess(ctx context.Context, token, owner string, accessedAt time.Time, rawUA, rawReferer, country, city string) error {
	cfg := configs.GetConfig().Share

	ua := useragent.Parse(rawUA)

	row := &model.ShareAccessLog{
		ShareToken:   token,
		Owner:        owner,
		AccessedAt:   accessedAt.UTC(),
		UserAgentRaw: truncate(rawUA, cfg.UARawMaxLen),
		Device:       string(ua.Device),
		Browser:      ua.Browser,
		OS:           ua.OS,
		Country:      country,
		City:         city,
		RefererRaw:   truncate(rawReferer, cfg.RefererMaxLen),
	}

	if err := s.dbc.GetDB().WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}

	return nil
}

// 通用聚合结果行.
type aggRow struct {
	Key string `gorm:"column:k"`
	Cnt int64  `gorm:"column:cnt"`
}

// ShareAnalytics 单个分享在 trailing window 内的访问统计.
// 仅 owner 可查；已过期的分享也可以查（清理前复盘）.
func (s *AnalyticsService) ShareAnalytics(ctx context.Context, owner, token string, days int) (*types.ShareAnalyticsResponse, error) {
	days = clampDays(days)

	var sh model.Share
	if err := s.dbc.GetDB().WithContext(ctx).Where("token = ?", token).First(&sh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("load share: %w", err)
	}

	if sh.Owner != owner {
		return nil, fmt.Errorf("%w: not the share owner", ErrForbidden)
	}

	since := time.Now().UTC().Add(-time.Duration(days) * hoursPerDayWindow)
	base := func() *gorm.DB {
		return s.dbc.GetDB().WithContext(ctx).Model(&model.ShareAccessLog{}).
			Where("share_token = ? AND accessed_at >= ?", token, since)
	}

	out := &types.ShareAnalyticsResponse{ShareToken: token, WindowDays: days}

	// 各聚合相互独立，并发执行
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return base().Count(&out.TotalViews).Error
	})
	g.Go(func() error {
		var err error
		out.ByDay, err = groupBy(base(), "DATE(accessed_at)")
		out.UniqueDays = len(out.ByDay)

		return err
	})
	g.Go(func() error {
		var err error
		out.ByDevice, err = groupBy(base(), "device")

		return err
	})
	g.Go(func() error {
		var err error
		out.ByBrowser, err = groupBy(base(), "browser")

		return err
	})
	g.Go(func() error {
		var err error
		out.ByCountry, err = groupBy(base(), "country")

		return err
	})
	g.Go(func() error {
		var err error
		out.Recent, err = recentEvents(base())

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("share analytics: %w", err)
	}

	return out, nil
}

// OwnerAnalytics 某 owner 全部分享的汇总统计.
func (s *AnalyticsService) OwnerAnalytics(ctx context.Context, owner string, days int) (*types.OwnerAnalyticsResponse, error) {
	if owner == "" {
		return nil, validationErr("owner is required")
	}

	days = clampDays(days)
	since := time.Now().UTC().Add(-time.Duration(days) * hoursPerDayWindow)
	base := func() *gorm.DB {
		return s.dbc.GetDB().WithContext(ctx).Model(&model.ShareAccessLog{}).
			Where("owner = ? AND accessed_at >= ?", owner, since)
	}

	out := &types.OwnerAnalyticsResponse{Owner: owner, WindowDays: days}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return base().Count(&out.TotalViews).Error
	})
	g.Go(func() error {
		var err error
		out.ByDay, err = groupBy(base(), "DATE(accessed_at)")

		return err
	})
	g.Go(func() error {
		var err error
		out.ByDevice, err = groupBy(base(), "device")

		return err
	})
	g.Go(func() error {
		var err error
		out.ByBrowser, err = groupBy(base(), "browser")

		return err
	})
	g.Go(func() error {
		var err error
		out.ByCountry, err = groupBy(base(), "country")

		return err
	})
	g.Go(func() error {
		var err error
		out.TopShares, err = s.topShares(base(), configs.GetConfig().Share.TopShares)

		return err
	})
	g.Go(func() error {
		var err error
		out.Recent, err = recentEvents(base())

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("owner analytics: %w", err)
	}

	return out, nil
}

// groupBy 按表达式聚合计数，按计数降序.
// SQLite/MySQL 兼容：DATE() 与普通列名都可以作为分组表达式.
func groupBy(q *gorm.DB, expr string) ([]types.CountItem, error) {
	var rows []aggRow
	if err := q.Select(expr + " as k, COUNT(*) as cnt").
		Group(expr).Order("cnt DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.CountItem, 0, len(rows))
	for _, r := range rows {
		if r.Key == "" {
			r.Key = "unknown"
		}

		out = append(out, types.CountItem{Key: r.Key, Count: r.Cnt})
	}

	return out, nil
}

// topShares 按分享聚合浏览数，附带展示名.
func (s *AnalyticsService) topShares(q *gorm.DB, limit int) ([]types.TopShareItem, error) {
	var rows []aggRow
	if err := q.Select("share_token as k, COUNT(*) as cnt").
		Group("share_token").Order("cnt DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.TopShareItem, 0, len(rows))

	for _, r := range rows {
		item := types.TopShareItem{ShareToken: r.Key, Views: r.Cnt}

		var sh model.Share
		if err := s.dbc.GetDB().Select("display_name").
			Where("token = ?", r.Key).First(&sh).Error; err == nil {
			item.DisplayName = sh.DisplayName
		}

		out = append(out, item)
	}

	return out, nil
}

// recentEvents 最近 N 条原始事件的脱敏投影.
func recentEvents(q *gorm.DB) ([]types.AccessEvent, error) {
	limit := configs.GetConfig().Share.RecentEvents
	if limit <= 0 {
		limit = configs.DefaultRecentEvents
	}

	var rows []model.ShareAccessLog
	if err := q.Order("accessed_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.AccessEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.AccessEvent{
			ShareToken: r.ShareToken,
			AccessedAt: r.AccessedAt,
			Device:     r.Device,
			Browser:    r.Browser,
			OS:         r.OS,
			Country:    r.Country,
			City:       r.City,
			Referer:    r.RefererRaw,
		})
	}

	return out, nil
}

// TrimOldLogs 删除保留期之外的日志行，返回删除数量。由后台任务调用.
func (s *AnalyticsService) TrimOldLogs(ctx context.Context) (int64, error) {
	retention := configs.GetConfig().Share.LogRetentionDays
	if retention <= 0 {
		retention = configs.DefaultLogRetentionDays
	}

	cutoff := time.Now().UTC().Add(-time.Duration(retention) * hoursPerDayWindow)

	res := s.dbc.GetDB().WithContext(ctx).
		Where("accessed_at < ?", cutoff).Delete(&model.ShareAccessLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("trim access logs: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// clampDays 将统计窗口限制在 [1, MaxAnalyticsDays]；非法值回落到默认.
func clampDays(days int) int {
	cfg := configs.GetConfig().Share

	def, maxDays := cfg.AnalyticsDays, cfg.MaxAnalyticsDays
	if def <= 0 {
		def = configs.DefaultAnalyticsDays
	}

	if maxDays <= 0 {
		maxDays = configs.DefaultMaxAnalyticsDays
	}

	if days <= 0 {
		return def
	}

	if days > maxDays {
		return maxDays
	}

	return days
}

// truncate 截断到 max 字节；max 非正表示不截断.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	return s[:max]
}
