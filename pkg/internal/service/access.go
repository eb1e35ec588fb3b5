package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/yeisme/vaultshare/pkg/configs"
	"github.com/yeisme/vaultshare/pkg/internal/pathscope"
	"github.com/yeisme/vaultshare/pkg/internal/ratelimit"
	"github.com/yeisme/vaultshare/pkg/internal/storage/store"
	"github.com/yeisme/vaultshare/pkg/internal/types"
	nlog "github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/metrics"
	"github.com/yeisme/vaultshare/pkg/queue"
)

// 冲突改名的尝试上限，超过则放弃而不是无限探测远端.
const maxRenameAttempts = 100

// AccessService 匿名侧的访问业务：读文件、列目录、写入与投递上传.
// 所有路径先过沙箱校验，再触达远端存储.
type AccessService struct {
	shares  *ShareService
	limiter *ratelimit.Limiter

	resolve func(ctx context.Context, token string, meta *AccessMeta) (*Resolved, error) // 可在测试中替换
}

// NewAccessService 创建访问服务。limiter 为进程级单例，由调用方注入.
func NewAccessService(c context.Context, limiter *ratelimit.Limiter) *AccessService {
	svc := &AccessService{
		shares:  NewShareService(c),
		limiter: limiter,
	}
	svc.resolve = svc.shares.Resolve

	return svc
}

// Shares 暴露底层注册表，便于 handler 复用解析逻辑.
func (a *AccessService) Shares() *ShareService { return a.shares }

// ReadFile 通过分享读取单个文件。路径越界与模式不符都是 Forbidden，
// 范围内但不存在的文件是 NotFound.
func (a *AccessService) ReadFile(ctx context.Context, token, reqPath string, meta *AccessMeta) (*types.ReadFileResponse, error) {
	r, err := a.resolve(ctx, token, meta)
	if err != nil {
		return nil, err
	}

	if r.Share.Mode == types.ModeDeposit {
		metrics.AccessDenials.WithLabelValues("forbidden").Inc()

		return nil, fmt.Errorf("%w: deposit shares cannot read", ErrForbidden)
	}

	if !pathscope.Validate(reqPath, r.Share.ScopePath, r.Share.IncludeSubfolders, pathscope.ScopeType(r.Share.ScopeType)) {
		metrics.AccessDenials.WithLabelValues("forbidden").Inc()

		return nil, fmt.Errorf("%w: path outside share scope", ErrForbidden)
	}

	obj, err := r.Store.ReadPath(ctx, r.Coord, pathscope.Normalize(reqPath))
	if err != nil {
		if errors.Is(err, store.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: file", ErrNotFound)
		}

		return nil, mapStoreErr(err, token, "read")
	}

	return &types.ReadFileResponse{
		Path:        pathscope.Normalize(reqPath),
		Content:     obj.Data,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}, nil
}

// ListTree 列出范围内可见的条目。deposit 模式不可列目录.
func (a *AccessService) ListTree(ctx context.Context, token string, meta *AccessMeta) ([]store.Entry, error) {
	r, err := a.resolve(ctx, token, meta)
	if err != nil {
		return nil, err
	}

	if r.Share.Mode == types.ModeDeposit {
		metrics.AccessDenials.WithLabelValues("forbidden").Inc()

		return nil, fmt.Errorf("%w: deposit shares cannot list", ErrForbidden)
	}

	scope := r.Share.ScopePath
	if r.Share.ScopeType == types.ScopeNote {
		// note 范围只有一个文件，直接 stat
		notePath := scope + pathscope.NoteExtension

		entry, err := r.Store.StatPath(ctx, r.Coord, notePath)
		if err != nil {
			if errors.Is(err, store.ErrObjectNotFound) {
				return []store.Entry{}, nil
			}

			return nil, mapStoreErr(err, token, "stat")
		}

		return []store.Entry{*entry}, nil
	}

	entries, err := r.Store.ListTree(ctx, r.Coord, scope)
	if err != nil {
		return nil, mapStoreErr(err, token, "list")
	}

	// 远端返回范围前缀下的全部条目，这里再按 includeSubfolders 过滤一遍
	out := entries[:0]

	for _, e := range entries {
		if pathscope.Validate(e.Path, scope, r.Share.IncludeSubfolders, pathscope.ScopeFolder) {
			out = append(out, e)
		}
	}

	return out, nil
}

// WriteFile 写入范围内的文件，仅 writer 模式允许.
func (a *AccessService) WriteFile(ctx context.Context, token, reqPath string, data []byte, contentType string, meta *AccessMeta) error {
	r, err := a.resolve(ctx, token, meta)
	if err != nil {
		return err
	}

	if r.Share.Mode != types.ModeWriter {
		metrics.AccessDenials.WithLabelValues("forbidden").Inc()

		return fmt.Errorf("%w: share does not permit writes", ErrForbidden)
	}

	if !pathscope.Validate(reqPath, r.Share.ScopePath, r.Share.IncludeSubfolders, pathscope.ScopeType(r.Share.ScopeType)) {
		metrics.AccessDenials.WithLabelValues("forbidden").Inc()

		return fmt.Errorf("%w: path outside share scope", ErrForbidden)
	}

	if err := r.Store.WritePath(ctx, r.Coord, pathscope.Normalize(reqPath), data, contentType); err != nil {
		return mapStoreErr(err, token, "write")
	}

	return nil
}

// DepositFile 一次投递请求中的单个文件.
type DepositFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// Deposit 处理匿名投递：逐文件限流、校验、写入并计费。
// 单个文件失败不影响其余文件；全部因限流被拒且无成功项时返回 RateLimitedError.
func (a *AccessService) Deposit(ctx context.Context, token, clientIP string, files []DepositFile, meta *AccessMeta) (*types.DepositUploadResponse, error) {
	if len(files) == 0 {
		return nil, validationErr("no files in request")
	}

	maxFiles := configs.GetConfig().Share.DepositMaxFiles
	if maxFiles <= 0 {
		maxFiles = configs.DefaultDepositMaxFiles
	}

	if len(files) > maxFiles {
		return nil, validationErr("too many files in one request (max %d)", maxFiles)
	}

	r, err := a.resolve(ctx, token, meta)
	if err != nil {
		return nil, err
	}

	if r.Share.Mode != types.ModeDeposit || r.Share.Deposit == nil {
		metrics.AccessDenials.WithLabelValues("forbidden").Inc()

		return nil, fmt.Errorf("%w: share does not accept deposits", ErrForbidden)
	}

	dc := r.Share.Deposit
	resp := &types.DepositUploadResponse{
		Uploaded: []types.DepositUploadedItem{},
		Errors:   []types.DepositErrorItem{},
	}

	for i := range files {
		f := &files[i]

		// 每个文件是一个限流单元：先查，不通过就不做任何工作
		res := a.limiter.Check(clientIP, token)
		if !res.Allowed {
			scope := "share"
			if strings.Contains(res.Reason, "per-ip") {
				scope = "ip"
			}

			metrics.RateLimitRejections.WithLabelValues(scope).Inc()

			if len(resp.Uploaded) == 0 && len(resp.Errors) == 0 {
				// 一个都没处理就被拒：整个请求按 429 返回
				return nil, &RateLimitedError{
					RetryAfter: time.Duration(res.RetryAfterSeconds) * time.Second,
					Scope:      scope,
					Reason:     res.Reason,
				}
			}

			resp.Errors = append(resp.Errors, types.DepositErrorItem{Name: f.Name, Reason: res.Reason})

			continue
		}

		storedPath, err := a.depositOne(ctx, r, dc, f)
		if err != nil {
			resp.Errors = append(resp.Errors, types.DepositErrorItem{Name: f.Name, Reason: err.Error()})

			continue
		}

		// 只有真正写入成功才消耗配额
		a.limiter.Record(clientIP, token)
		metrics.DepositUploads.Inc()

		resp.Uploaded = append(resp.Uploaded, types.DepositUploadedItem{
			Name:       f.Name,
			StoredPath: storedPath,
			Size:       int64(len(f.Data)),
		})

		a.publishDeposit(r, storedPath, int64(len(f.Data)))
	}

	resp.Remaining = a.limiter.Check(clientIP, token).Remaining

	return resp, nil
}

// depositOne 校验并写入单个投递文件，返回实际存储路径.
func (a *AccessService) depositOne(ctx context.Context, r *Resolved, dc *types.DepositConfig, f *DepositFile) (string, error) {
	name := sanitizeFileName(f.Name)
	if name == "" {
		return "", errors.New("invalid file name")
	}

	if int64(len(f.Data)) > dc.MaxFileSize {
		return "", fmt.Errorf("file exceeds size limit (%d bytes)", dc.MaxFileSize)
	}

	if len(dc.AllowedExtensions) > 0 {
		ext := strings.ToLower(path.Ext(name))
		allowed := false

		for _, e := range dc.AllowedExtensions {
			if ext == e {
				allowed = true

				break
			}
		}

		if !allowed {
			return "", fmt.Errorf("extension %q not allowed", ext)
		}
	}

	target, err := a.resolveCollision(ctx, r, dc.DepositFolder, name)
	if err != nil {
		return "", err
	}

	if err := r.Store.WritePath(ctx, r.Coord, target, f.Data, f.ContentType); err != nil {
		nlog.Logger().Error().Err(err).Str("token", r.Share.Token).Str("path", target).Msg("deposit write failed")

		return "", errors.New("storage write failed")
	}

	return target, nil
}

// resolveCollision 目标已存在时自动改名：name.ext → name-1.ext、name-2.ext …
func (a *AccessService) resolveCollision(ctx context.Context, r *Resolved, folder, name string) (string, error) {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i <= maxRenameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}

		target := pathscope.BuildFullPath(folder, candidate)

		_, err := r.Store.StatPath(ctx, r.Coord, target)
		if errors.Is(err, store.ErrObjectNotFound) {
			return target, nil
		}

		if err != nil {
			return "", errors.New("storage stat failed")
		}
	}

	return "", errors.New("too many name collisions")
}

// publishDeposit 发布投递完成事件；尽力而为.
func (a *AccessService) publishDeposit(r *Resolved, storedPath string, size int64) {
	if a.shares.mqc == nil {
		return
	}

	err := queue.PublishDepositStored(context.Background(), a.shares.mqc, queue.DepositStoredPayload{
		ShareToken: r.Share.Token,
		Owner:      r.Share.Owner,
		StoredPath: storedPath,
		Size:       size,
		StoredAt:   time.Now().UTC(),
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("token", r.Share.Token).Msg("publish deposit event")
	}
}

// sanitizeFileName 只保留文件名本身，拒绝路径分隔与点目录.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	if name == "." || name == ".." || name == "/" || strings.TrimSpace(name) == "" {
		return ""
	}

	return name
}

// mapStoreErr 归一化远端存储错误：熔断短路与超时属于临时故障，
// 其余按内部错误处理，细节只进日志.
func mapStoreErr(err error, token, op string) error {
	nlog.Logger().Error().Err(err).Str("token", token).Str("op", op).Msg("remote store operation failed")

	if errors.Is(err, store.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: remote store", ErrUnavailable)
	}

	return fmt.Errorf("%w: remote store", ErrInternal)
}
