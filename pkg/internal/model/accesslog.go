package model

import "time"

// ShareAccessLog 记录对公开分享的每次成功访问，统计按需从原始行聚合。
// Owner 为冗余列，避免 owner 维度汇总时联表。
type ShareAccessLog struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	ShareToken string `gorm:"size:64;not null;index"  json:"share_token"`
	Owner      string `gorm:"size:255;not null;index" json:"owner"`

	AccessedAt time.Time `gorm:"not null;index" json:"accessed_at"`

	UserAgentRaw string `gorm:"size:512" json:"user_agent_raw"` // 截断后存储
	Device       string `gorm:"size:16"  json:"device"`
	Browser      string `gorm:"size:64"  json:"browser"`
	OS           string `gorm:"size:64"  json:"os"`

	Country string `gorm:"size:64"  json:"country,omitempty"`
	City    string `gorm:"size:128" json:"city,omitempty"`

	RefererRaw string `gorm:"size:512" json:"referer_raw,omitempty"` // 截断后存储

	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名.
func (ShareAccessLog) TableName() string { return "share_access_logs" }
