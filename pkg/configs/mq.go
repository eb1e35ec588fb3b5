package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	// MQTypeChannel 进程内 gochannel 实现，访问事件的默认通道.
	MQTypeChannel MQType = "channel"
	// MQTypeNATS 外部 NATS（支持 JetStream）.
	MQTypeNATS MQType = "nats"

	DefaultMQURL         = "localhost:4222"
	DefaultMQUser        = ""
	DefaultMQPassword    = ""
	DefaultMaxReconnects = 5                    // 默认最大重连次数.
	DefaultReconnectWait = 5                    // 默认重连等待时间（秒）.
	DefaultMQClientID    = "vaultshare-app"     // 默认客户端ID
	DefaultChannelBuffer = 256                  // gochannel 缓冲长度（有界的后台任务队列）
	DefaultStreamName    = "vaultshare-stream"  // 默认 JetStream 流名
	DefaultSubjectPrefix = "vaultshare."        // 默认主题前缀
	DefaultDurablePrefix = "vaultshare-durable" // 默认持久化前缀
)

// MQConfig 消息队列配置.
type MQConfig struct {
	Type    MQType          `mapstructure:"type"    rule:"oneof=channel nats"`
	Common  MQCommonConfig  `mapstructure:"common"`
	Channel MQChannelConfig `mapstructure:"channel"`
	NATS    MQNATSConfig    `mapstructure:"nats"`
}

// MQCommonConfig 通用MQ配置.
type MQCommonConfig struct {
	URL           string `mapstructure:"url"            rule:"hostname_port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
	Endpoint      string `mapstructure:"endpoint"`
}

// MQChannelConfig 进程内 gochannel 配置.
type MQChannelConfig struct {
	// BufferSize 输出通道缓冲；满时发布方阻塞，天然形成有界队列
	BufferSize int `mapstructure:"buffer_size" rule:"min=1,max=65536"`
	// Persistent 为 true 时新订阅者会收到历史消息（仅用于调试）
	Persistent bool `mapstructure:"persistent"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	StreamName             string `mapstructure:"stream_name"`
	SubjectPrefix          string `mapstructure:"subject_prefix"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeChannel)

	// Common 默认值
	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.user", DefaultMQUser)
	v.SetDefault("mq.common.password", DefaultMQPassword)
	v.SetDefault("mq.common.client_id", DefaultMQClientID)
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.common.enable_metrics", false)
	v.SetDefault("mq.common.endpoint", ":9092")

	// Channel 默认值
	v.SetDefault("mq.channel.buffer_size", DefaultChannelBuffer)
	v.SetDefault("mq.channel.persistent", false)

	// NATS 默认值
	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.stream_name", DefaultStreamName)
	v.SetDefault("mq.nats.subject_prefix", DefaultSubjectPrefix)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", true)
	v.SetDefault("mq.nats.jetstream_durable_prefix", DefaultDurablePrefix)
}
