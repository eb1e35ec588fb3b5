package service

import (
	"context"
	crand "crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/vaultshare/pkg/configs"
	ctxPkg "github.com/yeisme/vaultshare/pkg/context"
	"github.com/yeisme/vaultshare/pkg/internal/crypto"
	"github.com/yeisme/vaultshare/pkg/internal/model"
	"github.com/yeisme/vaultshare/pkg/internal/pathscope"
	"github.com/yeisme/vaultshare/pkg/internal/storage/db"
	"github.com/yeisme/vaultshare/pkg/internal/storage/mq"
	"github.com/yeisme/vaultshare/pkg/internal/types"
	nlog "github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/queue"
)

const shareTokenBytes = 24 // base64url 后 32 字符，足够抵抗枚举

// ShareService 负责分享注册表：创建、查询、撤销与访问计数.
// DB 是唯一真源；撤销与过期必须在下一次访问立即生效，因此不做记录缓存.
type ShareService struct {
	dbc *db.Client
	mqc *mq.Client

	key []byte // 由主密钥派生的凭证加密密钥
}

// NewShareService 创建并返回一个新的 ShareService 实例.
func NewShareService(c context.Context) *ShareService {
	svc := &ShareService{
		dbc: ctxPkg.GetDBClient(c),
		mqc: ctxPkg.GetMQClient(c),
		key: crypto.DeriveKey(configs.GetConfig().Crypto.MasterSecret),
	}

	if svc.dbc == nil {
		nlog.Logger().Warn().Msg("DB client not initialized, ShareService features limited")
	}

	return svc
}

// CreateShare 创建一个新的分享：校验范围与模式、加密凭证、落库.
// 响应绝不包含凭证（明文或密文）.
func (s *ShareService) CreateShare(ctx context.Context, owner, ownerDisplayName string, req *types.CreateShareRequest) (*types.CreateShareResponse, error) {
	if owner == "" {
		return nil, validationErr("owner is required")
	}

	if req == nil {
		return nil, validationErr("request body is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, fmt.Errorf("%w: db not initialized", ErrInternal)
	}

	scopePath := pathscope.Normalize(req.ScopePath)
	if scopePath == "" {
		return nil, validationErr("scope_path is required")
	}

	if req.ScopeType != types.ScopeFolder && req.ScopeType != types.ScopeNote {
		return nil, validationErr("scope_type must be folder or note")
	}

	includeSubfolders := req.IncludeSubfolders
	if req.ScopeType == types.ScopeNote {
		// note 范围只覆盖单个文件，子目录选项无意义
		includeSubfolders = false
	}

	deposit, err := resolveDepositConfig(req)
	if err != nil {
		return nil, err
	}

	expiresIn, err := parseExpiresIn(req.ExpiresIn)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Credential) == "" {
		return nil, validationErr("credential is required")
	}

	if req.RepoOwner == "" || req.RepoName == "" {
		return nil, validationErr("repo_owner and repo_name are required")
	}

	encrypted, err := crypto.Encrypt(req.Credential, s.key)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("encrypt share credential")

		return nil, fmt.Errorf("%w: credential encryption", ErrInternal)
	}

	now := time.Now().UTC()
	rec := &model.ShareRecord{
		Token:               newShareToken(),
		Owner:               owner,
		OwnerDisplayName:    ownerDisplayName,
		DisplayName:         req.Name,
		EncryptedCredential: encrypted,
		RepoOwner:           req.RepoOwner,
		RepoName:            req.RepoName,
		Branch:              req.Branch,
		RootPath:            req.RootPath,
		ScopeType:           req.ScopeType,
		ScopePath:           scopePath,
		IncludeSubfolders:   includeSubfolders,
		Mode:                req.Mode,
		Deposit:             deposit,
		AllowCopy:           req.AllowCopy,
		AllowExport:         req.AllowExport,
		CreatedAt:           now,
		ExpiresAt:           now.Add(expiresIn),
		AccessCount:         0,
	}

	dbRec, err := model.FromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err)
	}

	if err := s.dbc.GetDB().WithContext(ctx).Create(dbRec).Error; err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}

	s.publishLifecycle(queue.TopicShareCreated, rec)

	info := recordToInfo(rec)

	return &types.CreateShareResponse{Share: info}, nil
}

// ListShares 获取指定 owner 的全部分享，包含已过期项，便于管理界面清理.
func (s *ShareService) ListShares(ctx context.Context, owner string) (*types.ListSharesResponse, error) {
	if owner == "" {
		return nil, validationErr("owner is required")
	}

	var dbShares []model.Share
	if err := s.dbc.GetDB().WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").Find(&dbShares).Error; err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	shares := make([]types.ShareInfo, 0, len(dbShares))

	for i := range dbShares {
		rec, err := dbShares[i].ToRecord()
		if err != nil {
			nlog.Logger().Error().Err(err).Str("token", dbShares[i].Token).Msg("skip corrupt share record")

			continue
		}

		shares = append(shares, recordToInfo(rec))
	}

	return &types.ListSharesResponse{Shares: shares}, nil
}

// RevokeShare 撤销分享。token 不存在或不属于 requester 时返回 false 而非错误，
// 调用方通过布尔值判断是否真的删除了什么.
func (s *ShareService) RevokeShare(ctx context.Context, owner, token string) (bool, error) {
	if owner == "" || token == "" {
		return false, validationErr("owner and token are required")
	}

	var sh model.Share
	if err := s.dbc.GetDB().WithContext(ctx).Where("token = ?", token).First(&sh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("load share: %w", err)
	}

	if sh.Owner != owner {
		return false, nil
	}

	if err := s.dbc.GetDB().WithContext(ctx).Delete(&sh).Error; err != nil {
		return false, fmt.Errorf("delete share: %w", err)
	}

	if rec, err := sh.ToRecord(); err == nil {
		s.publishLifecycle(queue.TopicShareRevoked, rec)
	}

	return true, nil
}

// GetActive 按 token 查询未过期的分享，所有真实访问路径都走这里.
// 查不到返回 ErrNotFound；是否"曾经存在"由 GetRaw 判定.
func (s *ShareService) GetActive(ctx context.Context, token string) (*model.ShareRecord, error) {
	if token == "" {
		return nil, validationErr("token is required")
	}

	var sh model.Share
	err := s.dbc.GetDB().WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now().UTC()).
		First(&sh).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("load share: %w", err)
	}

	rec, err := sh.ToRecord()
	if err != nil {
		nlog.Logger().Error().Err(err).Str("token", token).Msg("share record corrupt")

		return nil, ErrShareUnusable
	}

	return rec, nil
}

// GetRaw 不过滤过期的查询，仅用于区分 "从未存在"（404 类）与
// "存在但已过期"（410 类）的对外措辞.
func (s *ShareService) GetRaw(ctx context.Context, token string) (*model.ShareRecord, error) {
	if token == "" {
		return nil, validationErr("token is required")
	}

	var sh model.Share
	if err := s.dbc.GetDB().WithContext(ctx).Where("token = ?", token).First(&sh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("load share: %w", err)
	}

	rec, err := sh.ToRecord()
	if err != nil {
		nlog.Logger().Error().Err(err).Str("token", token).Msg("share record corrupt")

		return nil, ErrShareUnusable
	}

	return rec, nil
}

// Metadata 公开元数据投影。过期与不存在必须对外可区分.
func (s *ShareService) Metadata(ctx context.Context, token string) (*types.ShareInfo, error) {
	rec, err := s.GetActive(ctx, token)
	if err == nil {
		info := recordToInfo(rec)

		return &info, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// 区分 404 与 410
	if _, rawErr := s.GetRaw(ctx, token); rawErr == nil {
		return nil, ErrExpired
	}

	return nil, ErrNotFound
}

// RecordAccess 原子地递增访问计数并刷新最后访问时间。
// 必须是单条 UPDATE：读改写回在并发下会丢失计数.
func (s *ShareService) RecordAccess(ctx context.Context, token string) error {
	now := time.Now().UTC()

	return s.dbc.GetDB().WithContext(ctx).Model(&model.Share{}).
		Where("token = ?", token).
		Updates(map[string]any{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": now,
		}).Error
}

// PurgeExpired 删除所有已过期的分享，返回删除数量。由后台任务定期调用.
func (s *ShareService) PurgeExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	var expired []model.Share
	if err := s.dbc.GetDB().WithContext(ctx).
		Where("expires_at <= ?", now).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("list expired shares: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	res := s.dbc.GetDB().WithContext(ctx).
		Where("expires_at <= ?", now).Delete(&model.Share{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired shares: %w", res.Error)
	}

	for i := range expired {
		if rec, err := expired[i].ToRecord(); err == nil {
			s.publishLifecycle(queue.TopicSharePurged, rec)
		}
	}

	return res.RowsAffected, nil
}

// ---- 内部工具 ----

// newShareToken 生成 "sh_" 前缀的高熵 URL 安全 token.
func newShareToken() string {
	buf := make([]byte, shareTokenBytes)
	if _, err := crand.Read(buf); err != nil {
		// crypto/rand 失败意味着系统熵源不可用，无法安全地继续
		panic(fmt.Sprintf("read random: %v", err))
	}

	return "sh_" + base64.RawURLEncoding.EncodeToString(buf)
}

// resolveDepositConfig 校验模式与投递配置的组合并补全默认值.
// 仅 deposit 模式携带投递配置（其余模式传入即报错）.
func resolveDepositConfig(req *types.CreateShareRequest) (*types.DepositConfig, error) {
	switch req.Mode {
	case types.ModeReader, types.ModeWriter:
		if req.Deposit != nil {
			return nil, validationErr("deposit config is only valid for deposit mode")
		}

		return nil, nil
	case types.ModeDeposit:
	default:
		return nil, validationErr("mode must be reader, writer or deposit")
	}

	maxSize := configs.GetConfig().Share.DepositMaxSize
	if maxSize <= 0 {
		maxSize = configs.DefaultDepositMaxSize
	}

	dc := types.DepositConfig{
		MaxFileSize:   maxSize,
		DepositFolder: pathscope.Normalize(req.ScopePath),
	}

	if req.Deposit != nil {
		if req.Deposit.MaxFileSize < 0 {
			return nil, validationErr("deposit.max_file_size must be positive")
		}

		if req.Deposit.MaxFileSize > 0 {
			dc.MaxFileSize = req.Deposit.MaxFileSize
		}

		if folder := pathscope.Normalize(req.Deposit.DepositFolder); folder != "" {
			dc.DepositFolder = folder
		}

		for _, ext := range req.Deposit.AllowedExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}

			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}

			dc.AllowedExtensions = append(dc.AllowedExtensions, ext)
		}
	}

	return &dc, nil
}

// recordToInfo 转换为对外的 ShareInfo 结构，绝不携带凭证.
func recordToInfo(r *model.ShareRecord) types.ShareInfo {
	info := types.ShareInfo{
		Token:             r.Token,
		OwnerDisplayName:  r.OwnerDisplayName,
		DisplayName:       r.DisplayName,
		ScopeType:         r.ScopeType,
		ScopePath:         r.ScopePath,
		IncludeSubfolders: r.IncludeSubfolders,
		Mode:              r.Mode,
		AllowCopy:         r.AllowCopy,
		AllowExport:       r.AllowExport,
		CreatedAt:         r.CreatedAt,
		ExpiresAt:         r.ExpiresAt,
		LastAccessedAt:    r.LastAccessedAt,
		AccessCount:       r.AccessCount,
	}

	if r.Mode == types.ModeDeposit && r.Deposit != nil {
		dc := *r.Deposit
		info.Deposit = &dc
	}

	return info
}

// publishLifecycle 发布生命周期事件，失败只记日志，不影响主流程.
func (s *ShareService) publishLifecycle(topic string, rec *model.ShareRecord) {
	if s.mqc == nil {
		return
	}

	err := queue.PublishShareLifecycle(context.Background(), s.mqc, topic, queue.ShareLifecyclePayload{
		ShareToken: rec.Token,
		Owner:      rec.Owner,
		Mode:       string(rec.Mode),
		ScopeType:  string(rec.ScopeType),
		ScopePath:  rec.ScopePath,
		ExpiresAt:  rec.ExpiresAt,
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Str("token", rec.Token).Msg("publish lifecycle event")
	}
}
