// Package queue 管理消息队列，用于异步处理分享生命周期与访问记录事件.
//
// 概览
//   - 采用发布/订阅模型，把"响应请求"与"记录访问、统计、清理"解耦
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - 默认 JSON 编解码（bytedance/sonic），跨语言易解析
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "vs.share.accessed",
//	    "trace_id": "optional-trace-id",
//	    "producer": "vaultshare",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布/订阅示例
//
//	payload := queue.ShareAccessedPayload{
//	  ShareToken: "sh_abc",
//	  Owner: "alice",
//	  AccessedAt: time.Now().UTC(),
//	  UserAgent: "Mozilla/5.0 ...",
//	}
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicShareAccessed, payload)
//	// client, _ := mq.New(ctx)
//	// _ = client.Publish(ctx, queue.TopicShareAccessed, msg)
//
//	// ch, _ := client.Subscribe(ctx, queue.TopicShareAccessed)
//	// for m := range ch {
//	//     env, _ := queue.ParseShareAccessed(m)
//	//     // env.Header / env.Payload ...
//	//     m.Ack()
//	// }
//
// 注意事项
//  1. occurred_at 为 UTC，RFC3339 格式
//  2. version 便于后向兼容，建议消费者忽略未知字段
//  3. 消息 ID 使用 ULID，时间有序，便于离线排查
package queue

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid/v2"
)

const (
	PayloadVersionV1 string = "v1"
)

// EventHeader 事件公共头.
type EventHeader struct {
	Topic      string    `json:"topic"`
	TraceID    string    `json:"trace_id,omitempty"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version,omitempty"`
}

// Message 泛型消息信封.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		Producer:   "vaultshare",
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(ulid.Make().String(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
