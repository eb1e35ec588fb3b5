package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/vaultshare/pkg/cache"
)

const (
	defaultCacheTTL       = 30 * time.Second
	defaultMaxBodyBytes   = 1 << 20 // 1MB
	defaultKeyBuilderGrow = 64
)

// CacheConfig 响应缓存中间件配置。只适合统计类只读接口：
// 访问控制路径（分享解析、文件读取）必须每次读真源，不得挂在这里.
type CacheConfig struct {
	Cache *appcache.Cache // 必须: 注入的缓存实例，后端由 kv 配置决定
	TTL   time.Duration

	KeyFunc     func(*gin.Context) string // 生成缓存键
	VaryHeaders []string                  // 参与 Key 的 Header 列表

	BypassHeader string // 请求头存在该 header(任意值) 则跳过缓存, 默认: X-Cache-Bypass
	MaxBodyBytes int    // 缓存响应体最大字节 (0=不限制)
}

// responseCacheEntry 序列化存储结构.
type responseCacheEntry struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct,omitempty"`
	Body        []byte `json:"b,omitempty"`
	StoredAt    int64  `json:"t"` // unix nano, 用于 Age
}

// CacheMiddleware TTL 响应缓存。仅缓存 GET 的 200 响应，
// 命中返回 X-Cache: HIT。缓存读写失败不影响主流程.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	if cfg.BypassHeader == "" {
		cfg.BypassHeader = "X-Cache-Bypass"
	}

	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return buildDefaultKey(c, cfg.VaryHeaders) }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader(cfg.BypassHeader) != "" {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)

		if entry, err := appcache.Get[responseCacheEntry](c.Request.Context(), cfg.Cache, key); err == nil {
			c.Header("X-Cache", "HIT")
			c.Header("Age", strconv.Itoa(int(time.Since(time.Unix(0, entry.StoredAt))/time.Second)))
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()

			return
		}

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer, max: cfg.MaxBodyBytes}
		c.Writer = bw

		c.Next()

		if bw.Status() == http.StatusOK && !bw.overflow {
			entry := responseCacheEntry{
				Status:      bw.Status(),
				ContentType: bw.Header().Get("Content-Type"),
				Body:        bw.body,
				StoredAt:    time.Now().UnixNano(),
			}
			_ = appcache.Set(c.Request.Context(), cfg.Cache, key, entry, cfg.TTL)
		}
	}
}

// buildDefaultKey 方法 + 路径 + 排序 query + vary headers 的 xxhash.
// query 与 header 均排序以保证一致性.
func buildDefaultKey(c *gin.Context, vary []string) string {
	var b strings.Builder

	b.Grow(defaultKeyBuilderGrow)
	b.WriteString(c.Request.Method)
	b.WriteByte(':')
	b.WriteString(c.Request.URL.Path)

	if raw := c.Request.URL.Query(); len(raw) > 0 {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		b.WriteByte('?')

		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(raw[k], ","))
			b.WriteByte('&')
		}
	}

	for _, h := range vary {
		b.WriteByte('|')
		b.WriteString(h)
		b.WriteByte('=')
		b.WriteString(c.GetHeader(h))
	}

	return "rc:" + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// bodyCaptureWriter 捕获响应体用于写入缓存，超过上限即放弃捕获.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	body     []byte
	max      int
	overflow bool
}

func (w *bodyCaptureWriter) Write(p []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && len(w.body)+len(p) > w.max {
			w.overflow = true
			w.body = nil
		} else {
			w.body = append(w.body, p...)
		}
	}

	return w.ResponseWriter.Write(p)
}
