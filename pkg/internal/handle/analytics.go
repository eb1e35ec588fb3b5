package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/internal/service"
	"github.com/yeisme/vaultshare/pkg/log"
)

// daysParam 解析 ?days= 查询参数；缺失或非法返回 0，由 service 回落到默认窗口.
func daysParam(c *gin.Context) int {
	raw := c.Query("days")
	if raw == "" {
		return 0
	}

	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}

	return days
}

// ShareAnalytics 单个分享的访问统计，仅 owner 可查.
func ShareAnalytics(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	svc := service.NewAnalyticsService(c.Request.Context())

	resp, err := svc.ShareAnalytics(c.Request.Context(), user, token, daysParam(c))
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// OwnerAnalytics 当前用户全部分享的汇总统计.
func OwnerAnalytics(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewAnalyticsService(c.Request.Context())

	resp, err := svc.OwnerAnalytics(c.Request.Context(), user, daysParam(c))
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
