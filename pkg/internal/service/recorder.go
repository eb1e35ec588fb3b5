package service

import (
	"context"

	nlog "github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/queue"
)

// StartAccessRecorder 订阅访问事件并落库：原子递增计数 + 写访问日志。
// 读路径发布事件后立即返回，这里的任何失败都只记日志，不向请求方暴露.
// 随 ctx 取消退出.
func StartAccessRecorder(ctx context.Context) error {
	shares := NewShareService(ctx)
	analytics := NewAnalyticsService(ctx)

	if shares.mqc == nil {
		nlog.Logger().Warn().Msg("MQ client not initialized, access recording disabled")

		return nil
	}

	ch, err := shares.mqc.Subscribe(ctx, queue.TopicShareAccessed)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				env, err := queue.ParseShareAccessed(msg)
				if err != nil {
					nlog.Logger().Warn().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed access event")
					msg.Ack()

					continue
				}

				p := env.Payload

				if err := shares.RecordAccess(ctx, p.ShareToken); err != nil {
					nlog.Logger().Warn().Err(err).Str("token", p.ShareToken).Msg("record access count")
				}

				if err := analytics.LogAccess(ctx, p.ShareToken, p.Owner, p.AccessedAt,
					p.UserAgent, p.Referer, p.Country, p.City); err != nil {
					nlog.Logger().Warn().Err(err).Str("token", p.ShareToken).Msg("write access log")
				}

				msg.Ack()
			}
		}
	}()

	nlog.Logger().Info().Str("topic", queue.TopicShareAccessed).Msg("access recorder started")

	return nil
}
