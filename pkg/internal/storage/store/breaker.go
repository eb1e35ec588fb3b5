package store

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/vaultshare/pkg/configs"
	nlog "github.com/yeisme/vaultshare/pkg/log"
)

// ErrStoreUnavailable 熔断器打开，远端存储短路.
var ErrStoreUnavailable = errors.New("remote store unavailable")

// Breaker 进程级共享的熔断器。客户端按分享临时创建，
// 但失败统计必须跨请求累计，所以熔断器独立于客户端存在.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// breakerClient 用共享 Breaker 包装任意 Client.
type breakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker 根据配置创建熔断器；未启用时返回 nil，Wrap 会原样放行.
func NewBreaker(cfg configs.CircuitBreakerConfig) *Breaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			nlog.Logger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state changed")
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Wrap 用共享熔断器包装客户端.
func (b *Breaker) Wrap(inner Client) Client {
	if b == nil {
		return inner
	}

	return &breakerClient{inner: inner, cb: b.cb}
}

// execute 统一走熔断器。ErrObjectNotFound 是业务结果而非远端故障，
// 不计入失败（否则大量 404 会误触发熔断）.
func (b *breakerClient) execute(fn func() (any, error)) (any, error) {
	out, err := b.cb.Execute(func() (any, error) {
		v, e := fn()
		if errors.Is(e, ErrObjectNotFound) {
			return notFoundResult{v: v, err: e}, nil
		}

		return v, e
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrStoreUnavailable
		}

		return nil, err
	}

	if nf, ok := out.(notFoundResult); ok {
		return nf.v, nf.err
	}

	return out, nil
}

type notFoundResult struct {
	v   any
	err error
}

func (b *breakerClient) ReadPath(ctx context.Context, coord Coordinates, relPath string) (*Object, error) {
	out, err := b.execute(func() (any, error) {
		return b.inner.ReadPath(ctx, coord, relPath)
	})
	if err != nil {
		return nil, err
	}

	obj, _ := out.(*Object)

	return obj, nil
}

func (b *breakerClient) WritePath(ctx context.Context, coord Coordinates, relPath string, data []byte, contentType string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.WritePath(ctx, coord, relPath, data, contentType)
	})

	return err
}

func (b *breakerClient) DeletePath(ctx context.Context, coord Coordinates, relPath string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.DeletePath(ctx, coord, relPath)
	})

	return err
}

func (b *breakerClient) ListTree(ctx context.Context, coord Coordinates, relPrefix string) ([]Entry, error) {
	out, err := b.execute(func() (any, error) {
		return b.inner.ListTree(ctx, coord, relPrefix)
	})
	if err != nil {
		return nil, err
	}

	entries, _ := out.([]Entry)

	return entries, nil
}

func (b *breakerClient) StatPath(ctx context.Context, coord Coordinates, relPath string) (*Entry, error) {
	out, err := b.execute(func() (any, error) {
		return b.inner.StatPath(ctx, coord, relPath)
	})
	if err != nil {
		return nil, err
	}

	entry, _ := out.(*Entry)

	return entry, nil
}
