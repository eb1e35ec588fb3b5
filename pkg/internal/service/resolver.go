package service

import (
	"context"
	"errors"
	"time"

	ctxPkg "github.com/yeisme/vaultshare/pkg/context"
	"github.com/yeisme/vaultshare/pkg/internal/crypto"
	"github.com/yeisme/vaultshare/pkg/internal/model"
	"github.com/yeisme/vaultshare/pkg/internal/storage/store"
	nlog "github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/metrics"
	"github.com/yeisme/vaultshare/pkg/queue"
)

// AccessMeta 一次匿名访问的请求侧信息，用于访问日志。不含 IP：
// IP 只参与限流，不落库.
type AccessMeta struct {
	UserAgent string
	Referer   string
	Country   string
	City      string
}

// Resolved 解析成功的分享：记录 + 绑定其凭证的远端存储客户端.
type Resolved struct {
	Share *model.ShareRecord
	Store store.Client
	Coord store.Coordinates
}

// Resolve 解析 token 为可用的访问句柄：
//  1. GetActive 查活跃分享；查不到再用 GetRaw 区分 404/410
//  2. 解密凭证，解密失败视为记录损坏（fail closed）
//  3. 构造绑定该凭证的临时存储客户端
//  4. fire-and-forget 发布访问事件（计数与日志由订阅方落库），
//     发布失败绝不影响本次解析
func (s *ShareService) Resolve(ctx context.Context, token string, meta *AccessMeta) (*Resolved, error) {
	rec, err := s.GetActive(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if _, rawErr := s.GetRaw(ctx, token); rawErr == nil {
				return nil, ErrExpired
			}

			return nil, ErrNotFound
		}

		return nil, err
	}

	plain, err := crypto.Decrypt(rec.EncryptedCredential, s.key)
	if err != nil {
		// 解不开的凭证只可能是主密钥变更或数据损坏，对外一律不透明
		nlog.Logger().Error().Err(err).Str("token", token).Msg("credential decrypt failed")

		return nil, ErrShareUnusable
	}

	cred, err := store.ParseCredential(plain)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("token", token).Msg("stored credential malformed")

		return nil, ErrShareUnusable
	}

	mgr := ctxPkg.GetManager(ctx)
	if mgr == nil {
		return nil, ErrInternal
	}

	cli, err := mgr.OpenStore(cred)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("token", token).Msg("open remote store")

		return nil, ErrInternal
	}

	metrics.ShareResolves.Inc()
	s.publishAccess(rec, meta)

	return &Resolved{
		Share: rec,
		Store: cli,
		Coord: store.Coordinates{
			RepoOwner: rec.RepoOwner,
			RepoName:  rec.RepoName,
			Branch:    rec.Branch,
			RootPath:  rec.RootPath,
		},
	}, nil
}

// publishAccess 发布访问事件；尽力而为.
func (s *ShareService) publishAccess(rec *model.ShareRecord, meta *AccessMeta) {
	if s.mqc == nil {
		return
	}

	payload := queue.ShareAccessedPayload{
		ShareToken: rec.Token,
		Owner:      rec.Owner,
		AccessedAt: time.Now().UTC(),
	}

	if meta != nil {
		payload.UserAgent = meta.UserAgent
		payload.Referer = meta.Referer
		payload.Country = meta.Country
		payload.City = meta.City
	}

	if err := queue.PublishShareAccessed(context.Background(), s.mqc, payload); err != nil {
		nlog.Logger().Warn().Err(err).Str("token", rec.Token).Msg("publish access event")
	}
}
