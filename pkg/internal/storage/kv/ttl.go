package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// 无原生 TTL 的后端（groupcache、NATS KV）共用的值级 TTL 包装.
const ttlMagic = "VSTTL1:"

type ttlValue struct {
	V []byte `json:"v"`
	E int64  `json:"e,omitempty"` // unix 秒；0 表示不过期
}

// encodeWithTTL ttl>0 时包装值，否则原样返回.
func encodeWithTTL(value []byte, ttl time.Duration) ([]byte, bool, error) {
	if ttl <= 0 {
		return value, false, nil
	}

	tv := ttlValue{V: value, E: time.Now().Add(ttl).Unix()}

	b, err := sonic.Marshal(tv)
	if err != nil {
		return nil, false, fmt.Errorf("marshal ttl value: %w", err)
	}

	out := append([]byte(ttlMagic), b...)

	return out, true, nil
}

// decodeWithTTL 识别包装并判定过期状态.
// 返回 (value, expired, wrapped, error).
func decodeWithTTL(b []byte, now time.Time) ([]byte, bool, bool, error) {
	if !bytes.HasPrefix(b, []byte(ttlMagic)) {
		return b, false, false, nil
	}

	var tv ttlValue
	if err := sonic.Unmarshal(b[len(ttlMagic):], &tv); err != nil {
		return nil, false, true, fmt.Errorf("unmarshal ttl value: %w", err)
	}

	if tv.E > 0 && now.Unix() >= tv.E {
		return nil, true, true, nil
	}

	return tv.V, false, true, nil
}
