// Package handle 提供 HTTP 请求处理器实现：owner 管理面与匿名公开面.
package handle

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/internal/service"
	"github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// checkUser 提取经过反向代理认证的用户标识：
// oauth2-proxy 风格 Header 优先 -> X-User -> query 参数 -> 非 Release 模式默认 test-user.
func checkUser(c *gin.Context) (string, error) {
	user := c.GetHeader("X-Forwarded-Email")
	if user == "" {
		user = c.GetHeader("X-User")
	}

	if user == "" {
		user = c.Query("user")
	}
	// 测试默认值，不为 Release 模式时
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user@example.com"
	}

	user = strings.TrimSpace(user)

	// 使用 validator 验证用户名格式为 email
	if err := rule.ValidateVar(user, "required,email"); err != nil {
		return "", err
	}

	return user, nil
}

// userDisplayName 展示名，缺失时为空，不参与鉴权.
func userDisplayName(c *gin.Context) string {
	name := c.GetHeader("X-Forwarded-Preferred-Username")
	if name == "" {
		name = c.GetHeader("X-User-Name")
	}

	return strings.TrimSpace(name)
}

// writeErr 将业务哨兵错误映射为 HTTP 状态码。
// 内部错误对外不透明，完整原因由 service 层记日志.
func writeErr(c *gin.Context, err error) {
	var rle *service.RateLimitedError

	switch {
	case errors.As(err, &rle):
		retry := int(rle.RetryAfter / time.Second)
		if retry < 1 {
			retry = 1
		}

		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":               rle.Reason,
			"scope":               rle.Scope,
			"retry_after_seconds": retry,
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "share expired"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrUnavailable):
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	case errors.Is(err, service.ErrShareUnusable):
		// 记录损坏对客户端与"不存在"同样不可用，但语义上是服务端问题
		c.JSON(http.StatusInternalServerError, gin.H{"error": "share unusable"})
	default:
		log.Logger().Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
