package service

import (
	"errors"
	"fmt"
	"time"
)

// 业务哨兵错误。handle 层据此映射 HTTP 状态码，
// 对外响应只携带类别，细节只进日志.
var (
	// ErrNotFound 分享不存在或已被撤销（两者不作区分，避免探测）.
	ErrNotFound = errors.New("share not found")
	// ErrExpired 分享存在但已过期.
	ErrExpired = errors.New("share expired")
	// ErrForbidden 路径越界、模式不符或非 owner 操作.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation 请求参数不合法，包装具体原因.
	ErrValidation = errors.New("validation failed")
	// ErrShareUnusable 分享记录损坏（凭证解不开、配置反序列化失败等），
	// 对客户端不透明，完整原因进日志.
	ErrShareUnusable = errors.New("share unusable")
	// ErrUnavailable 远端存储暂时不可用（熔断短路、超时），可重试.
	ErrUnavailable = errors.New("temporarily unavailable")
	// ErrInternal 其他内部错误.
	ErrInternal = errors.New("internal error")
)

// RateLimitedError 限流拒绝，携带建议重试时间与触发的范围.
type RateLimitedError struct {
	RetryAfter time.Duration
	Scope      string // "ip" 或 "share"
	Reason     string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (%s): %s", e.Scope, e.Reason)
}

// validationErr 包装 ErrValidation 并附加原因.
func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
