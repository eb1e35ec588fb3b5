package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 发布端最小接口，与 storage/mq.Client 的方法集一致.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// -------------------------- 基于业务封装 events --------------------------

// PublishShareAccessed 发布 vs.share.accessed 事件。
// 公共读路径在响应前发布并立即返回，计数与日志由订阅方落库。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishShareAccessed(ctx context.Context, pub Publisher, payload ShareAccessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareAccessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicShareAccessed, msg)
}

// ParseShareAccessed 将 Watermill 消息解析为强类型 Envelope（ShareAccessedPayload）。
func ParseShareAccessed(msg *message.Message) (Message[ShareAccessedPayload], error) {
	return ParseWatermillMessage[ShareAccessedPayload](msg)
}

// PublishShareLifecycle 发布分享生命周期事件（created/revoked/purged）.
func PublishShareLifecycle(ctx context.Context, pub Publisher, topic string, payload ShareLifecyclePayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// ParseShareLifecycle 将 Watermill 消息解析为强类型 Envelope（ShareLifecyclePayload）。
func ParseShareLifecycle(msg *message.Message) (Message[ShareLifecyclePayload], error) {
	return ParseWatermillMessage[ShareLifecyclePayload](msg)
}

// PublishDepositStored 发布 vs.deposit.stored 事件.
func PublishDepositStored(ctx context.Context, pub Publisher, payload DepositStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicDepositStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicDepositStored, msg)
}

// ParseDepositStored 将 Watermill 消息解析为强类型 Envelope（DepositStoredPayload）。
func ParseDepositStored(msg *message.Message) (Message[DepositStoredPayload], error) {
	return ParseWatermillMessage[DepositStoredPayload](msg)
}
