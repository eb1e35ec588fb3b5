package model

import (
	"encoding/json"
	"fmt"
	"time"

	itypes "github.com/yeisme/vaultshare/pkg/internal/types"
)

// Share 数据库模型：以 DB 为真源。投递配置仅对 deposit 模式有意义，
// 以 JSON 文本存储，service 层按模式还原为对应变体。
// EncryptedCredential 永不序列化到任何对外结构。
type Share struct {
	Token            string `gorm:"primaryKey;size:64"  json:"token"`
	Owner            string `gorm:"size:255;index"      json:"owner"`
	OwnerDisplayName string `gorm:"size:255"            json:"owner_display_name"`
	DisplayName      string `gorm:"size:255"            json:"display_name"`

	EncryptedCredential string `gorm:"type:text" json:"-"`

	// 远端仓库坐标
	RepoOwner string `gorm:"size:255"  json:"repo_owner"`
	RepoName  string `gorm:"size:255"  json:"repo_name"`
	Branch    string `gorm:"size:255"  json:"branch"`
	RootPath  string `gorm:"size:1024" json:"root_path"`

	ScopeType         string `gorm:"size:16"   json:"scope_type"`
	ScopePath         string `gorm:"size:1024" json:"scope_path"`
	IncludeSubfolders bool   `json:"include_subfolders"`

	Mode        string `gorm:"size:16"   json:"mode"`
	DepositJSON string `gorm:"type:text" json:"-"`

	AllowCopy   bool `json:"allow_copy"`
	AllowExport bool `json:"allow_export"`

	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `gorm:"index" json:"expires_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	AccessCount    int64      `json:"access_count"`
}

// TableName 指定表名.
func (Share) TableName() string { return "shares" }

// ShareRecord 供 service 层使用的内部结构，避免 service 直接依赖 DB 的 JSON 细节。
// Deposit 仅在 Mode 为 deposit 时非 nil（每种模式只携带自己有效的字段）。
type ShareRecord struct {
	Token            string
	Owner            string
	OwnerDisplayName string
	DisplayName      string

	EncryptedCredential string

	RepoOwner string
	RepoName  string
	Branch    string
	RootPath  string

	ScopeType         itypes.ScopeType
	ScopePath         string
	IncludeSubfolders bool

	Mode    itypes.ShareMode
	Deposit *itypes.DepositConfig

	AllowCopy   bool
	AllowExport bool

	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt *time.Time
	AccessCount    int64
}

// ToRecord 将 DB 模型反序列化为 ShareRecord。
func (s *Share) ToRecord() (*ShareRecord, error) {
	rec := &ShareRecord{
		Token:               s.Token,
		Owner:               s.Owner,
		OwnerDisplayName:    s.OwnerDisplayName,
		DisplayName:         s.DisplayName,
		EncryptedCredential: s.EncryptedCredential,
		RepoOwner:           s.RepoOwner,
		RepoName:            s.RepoName,
		Branch:              s.Branch,
		RootPath:            s.RootPath,
		ScopeType:           itypes.ScopeType(s.ScopeType),
		ScopePath:           s.ScopePath,
		IncludeSubfolders:   s.IncludeSubfolders,
		Mode:                itypes.ShareMode(s.Mode),
		AllowCopy:           s.AllowCopy,
		AllowExport:         s.AllowExport,
		CreatedAt:           s.CreatedAt,
		ExpiresAt:           s.ExpiresAt,
		LastAccessedAt:      s.LastAccessedAt,
		AccessCount:         s.AccessCount,
	}

	if rec.Mode == itypes.ModeDeposit && s.DepositJSON != "" {
		var dc itypes.DepositConfig
		if err := json.Unmarshal([]byte(s.DepositJSON), &dc); err != nil {
			return nil, fmt.Errorf("unmarshal deposit config: %w", err)
		}

		rec.Deposit = &dc
	}

	return rec, nil
}

// FromRecord 将 ShareRecord 序列化为 DB 模型。
func FromRecord(r *ShareRecord) (*Share, error) {
	sh := &Share{
		Token:               r.Token,
		Owner:               r.Owner,
		OwnerDisplayName:    r.OwnerDisplayName,
		DisplayName:         r.DisplayName,
		EncryptedCredential: r.EncryptedCredential,
		RepoOwner:           r.RepoOwner,
		RepoName:            r.RepoName,
		Branch:              r.Branch,
		RootPath:            r.RootPath,
		ScopeType:           string(r.ScopeType),
		ScopePath:           r.ScopePath,
		IncludeSubfolders:   r.IncludeSubfolders,
		Mode:                string(r.Mode),
		AllowCopy:           r.AllowCopy,
		AllowExport:         r.AllowExport,
		CreatedAt:           r.CreatedAt,
		ExpiresAt:           r.ExpiresAt,
		LastAccessedAt:      r.LastAccessedAt,
		AccessCount:         r.AccessCount,
	}

	if r.Mode == itypes.ModeDeposit && r.Deposit != nil {
		b, err := json.Marshal(r.Deposit)
		if err != nil {
			return nil, fmt.Errorf("marshal deposit config: %w", err)
		}

		sh.DepositJSON = string(b)
	}

	return sh, nil
}
