package types

import "time"

// ScopeType 分享范围类型.
type ScopeType string

const (
	ScopeFolder ScopeType = "folder"
	ScopeNote   ScopeType = "note"
)

// ShareMode 分享能力模式.
type ShareMode string

const (
	// ModeReader 只读访问范围内的内容.
	ModeReader ShareMode = "reader"
	// ModeWriter 可读写范围内的内容.
	ModeWriter ShareMode = "writer"
	// ModeDeposit 仅允许向固定目录匿名上传.
	ModeDeposit ShareMode = "deposit"
)

// DepositConfig 投递模式配置，仅对 ModeDeposit 有效。
type DepositConfig struct {
	// MaxFileSize 单文件大小上限（字节），0 表示使用服务默认值
	MaxFileSize int64 `json:"max_file_size"`
	// AllowedExtensions 允许的扩展名白名单（含点，如 ".md"）；空表示不限制
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	// DepositFolder 上传目标目录（相对库根）
	DepositFolder string `json:"deposit_folder"`
}

// CreateShareRequest 创建分享所需参数.
type CreateShareRequest struct {
	// ScopePath 分享范围路径，不允许为空
	ScopePath string `form:"scope_path" json:"scope_path" rule:"required"`
	// ScopeType 范围类型：folder 或 note
	ScopeType ScopeType `form:"scope_type" json:"scope_type" rule:"required,oneof=folder note"`
	// Name 可选展示名
	Name string `form:"name" json:"name"`
	// IncludeSubfolders 是否包含子目录；note 范围强制为 false
	IncludeSubfolders bool `form:"include_subfolders" json:"include_subfolders"`
	// ExpiresIn 有效期，如 "30m"、"12h"、"1d"、"7d"
	ExpiresIn string `form:"expires_in" json:"expires_in" rule:"required"`
	// Mode 分享能力：reader、writer 或 deposit
	Mode ShareMode `form:"mode" json:"mode" rule:"required,oneof=reader writer deposit"`
	// Deposit 投递配置，仅 mode=deposit 时接受
	Deposit *DepositConfig `json:"deposit,omitempty"`
	// AllowCopy / AllowExport 客户端展示用权限位
	AllowCopy   bool `form:"allow_copy"   json:"allow_copy"`
	AllowExport bool `form:"allow_export" json:"allow_export"`
	// Credential 后端凭证明文，仅出现在创建请求中，服务端加密后存储
	Credential string `json:"credential" rule:"required"`
	// 远端仓库坐标
	RepoOwner string `json:"repo_owner" rule:"required"`
	RepoName  string `json:"repo_name"  rule:"required"`
	Branch    string `json:"branch"`
	RootPath  string `json:"root_path"`
}

// ShareInfo 分享的公开信息（owner 侧与匿名侧共用的安全投影）。
// 绝不包含凭证密文或明文。
type ShareInfo struct {
	Token             string         `json:"token"`
	OwnerDisplayName  string         `json:"owner_display_name,omitempty"`
	DisplayName       string         `json:"display_name,omitempty"`
	ScopeType         ScopeType      `json:"scope_type"`
	ScopePath         string         `json:"scope_path"`
	IncludeSubfolders bool           `json:"include_subfolders"`
	Mode              ShareMode      `json:"mode"`
	AllowCopy         bool           `json:"allow_copy"`
	AllowExport       bool           `json:"allow_export"`
	CreatedAt         time.Time      `json:"created_at"`
	ExpiresAt         time.Time      `json:"expires_at"`
	LastAccessedAt    *time.Time     `json:"last_accessed_at,omitempty"`
	AccessCount       int64          `json:"access_count"`
	Deposit           *DepositConfig `json:"deposit,omitempty"` // 仅 deposit 模式返回
}

// CreateShareResponse 创建分享的响应体.
type CreateShareResponse struct {
	Share ShareInfo `json:"share"`
}

// ListSharesResponse owner 的分享列表（包含已过期项，便于清理）.
type ListSharesResponse struct {
	Shares []ShareInfo `json:"shares"`
}

// RevokeShareResponse 撤销分享的响应体。Revoked 为 false 表示 token
// 不存在或不属于请求者（两者不作区分）.
type RevokeShareResponse struct {
	Revoked bool `json:"revoked"`
}
