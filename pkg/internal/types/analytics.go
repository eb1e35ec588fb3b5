package types

import "time"

// CountItem 通用的 键→计数 聚合行.
type CountItem struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// AccessEvent 时间线上的一条原始访问事件（已脱敏投影）.
type AccessEvent struct {
	ShareToken string    `json:"share_token"`
	AccessedAt time.Time `json:"accessed_at"`
	Device     string    `json:"device"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	Referer    string    `json:"referer,omitempty"`
}

// ShareAnalyticsResponse 单个分享的访问统计.
type ShareAnalyticsResponse struct {
	ShareToken string `json:"share_token"`
	WindowDays int    `json:"window_days"`
	TotalViews int64  `json:"total_views"`
	UniqueDays int    `json:"unique_days"`

	ByDay     []CountItem `json:"by_day"`
	ByDevice  []CountItem `json:"by_device"`
	ByBrowser []CountItem `json:"by_browser"`
	ByCountry []CountItem `json:"by_country"`

	Recent []AccessEvent `json:"recent"`
}

// TopShareItem owner 汇总中的分享排名行.
type TopShareItem struct {
	ShareToken  string `json:"share_token"`
	DisplayName string `json:"display_name,omitempty"`
	Views       int64  `json:"views"`
}

// OwnerAnalyticsResponse owner 全量分享的访问统计汇总.
type OwnerAnalyticsResponse struct {
	Owner      string `json:"owner"`
	WindowDays int    `json:"window_days"`
	TotalViews int64  `json:"total_views"`

	ByDay     []CountItem `json:"by_day"`
	ByDevice  []CountItem `json:"by_device"`
	ByBrowser []CountItem `json:"by_browser"`
	ByCountry []CountItem `json:"by_country"`

	TopShares []TopShareItem `json:"top_shares"`
	Recent    []AccessEvent  `json:"recent"`
}
