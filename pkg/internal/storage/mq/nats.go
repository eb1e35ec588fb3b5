// Package mq 提供 NATS 消息队列操作实现。
// 此文件包含 NATS 特定的工厂函数，用于创建配置了可选 JetStream 支持的
// Publisher 和 Subscriber 实例，供多实例部署时替换进程内通道.
package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/vaultshare/pkg/configs"
)

const defaultDrainTimeout = 30 * time.Second

// init 注册 NATS 工厂.
func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.Common.ClientID),
		nc.MaxReconnects(cfg.Common.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.Common.ReconnectWait) * time.Second),
		nc.DrainTimeout(defaultDrainTimeout),
		nc.RetryOnFailedConnect(true),
	}

	if cfg.Common.User != "" {
		opts = append(opts, nc.UserInfo(cfg.Common.User, cfg.Common.Password))
	}

	return opts
}

// buildJetStreamConfig 构建 JetStream 配置.
func buildJetStreamConfig(cfg *configs.MQConfig, logger watermill.LoggerAdapter) nats.JetStreamConfig {
	jsCfg := nats.JetStreamConfig{
		Disabled: !cfg.NATS.JetStreamEnabled,
	}

	if cfg.NATS.JetStreamEnabled {
		jsCfg.AutoProvision = cfg.NATS.JetStreamAutoProvision
		jsCfg.TrackMsgId = cfg.NATS.JetStreamTrackMsgID
		jsCfg.AckAsync = cfg.NATS.JetStreamAckAsync
		jsCfg.DurablePrefix = cfg.NATS.JetStreamDurablePrefix

		logger.Info("JetStream 配置信息", watermill.LogFields{
			"auto_provision": cfg.NATS.JetStreamAutoProvision,
			"track_msg_id":   cfg.NATS.JetStreamTrackMsgID,
			"ack_async":      cfg.NATS.JetStreamAckAsync,
			"durable_prefix": cfg.NATS.JetStreamDurablePrefix,
			"stream_name":    cfg.NATS.StreamName,
			"subject_prefix": cfg.NATS.SubjectPrefix,
		})
	}

	return jsCfg
}

// natsFactory 创建 NATS Publisher & Subscriber.
func natsFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	opts := buildNatsOptions(cfg)
	jsCfg := buildJetStreamConfig(cfg, logger)
	marshaler := &nats.JSONMarshaler{}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		NatsOptions: opts,
		JetStream:   jsCfg,
		Marshaler:   marshaler,
		URL:         cfg.Common.URL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		NatsOptions: opts,
		JetStream:   jsCfg,
		Unmarshaler: marshaler,
		URL:         cfg.Common.URL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	return pub, sub, nil
}
