package queue

import "time"

// ShareLifecyclePayload 分享创建/撤销/清理事件负载.
type ShareLifecyclePayload struct {
	ShareToken string    `json:"share_token"`
	Owner      string    `json:"owner"`
	Mode       string    `json:"mode"`
	ScopeType  string    `json:"scope_type"`
	ScopePath  string    `json:"scope_path"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ShareAccessedPayload 一次成功的公开访问。不含客户端 IP：
// IP 只参与限流，不落库.
type ShareAccessedPayload struct {
	ShareToken string    `json:"share_token"`
	Owner      string    `json:"owner"`
	AccessedAt time.Time `json:"accessed_at"`

	// UserAgent 原始 UA，订阅方负责截断与解析
	UserAgent string `json:"user_agent,omitempty"`
	Referer   string `json:"referer,omitempty"`

	// Country / City 来自边缘网关的地理头，可能为空
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// DepositStoredPayload 投递文件写入完成事件负载.
type DepositStoredPayload struct {
	ShareToken string    `json:"share_token"`
	Owner      string    `json:"owner"`
	StoredPath string    `json:"stored_path"`
	Size       int64     `json:"size"`
	StoredAt   time.Time `json:"stored_at"`
}
