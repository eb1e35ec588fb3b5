// Package mq 提供进程内 gochannel 实现。
// 默认通道：访问记录这类"后台尽力而为"的任务走有界缓冲，
// 缓冲满时发布方阻塞，不会无限堆积.
package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/vaultshare/pkg/configs"
)

// init 注册进程内通道工厂.
func init() {
	RegisterFactory(configs.MQTypeChannel, channelFactory)
}

// channelFactory 创建进程内 Publisher & Subscriber（同一个 PubSub 对象）.
func channelFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            int64(cfg.Channel.BufferSize),
		Persistent:                     cfg.Channel.Persistent,
		BlockPublishUntilSubscriberAck: false,
	}, logger)

	return ps, ps, nil
}
