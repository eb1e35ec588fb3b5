package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/internal/service"
	"github.com/yeisme/vaultshare/pkg/internal/types"
	"github.com/yeisme/vaultshare/pkg/log"
)

// CreateShare 创建分享链接。响应绝不包含后端凭证.
func CreateShare(c *gin.Context) {
	l := log.Logger()

	var req types.CreateShareRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewShareService(c.Request.Context())

	resp, err := svc.CreateShare(c.Request.Context(), user, userDisplayName(c), &req)
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListShares 获取我的分享列表，包含已过期项.
func ListShares(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})

		return
	}

	svc := service.NewShareService(c.Request.Context())

	resp, err := svc.ListShares(c.Request.Context(), user)
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RevokeShare 撤销分享。token 不存在或不属于当前用户时 revoked=false，
// 不泄露他人分享是否存在.
func RevokeShare(c *gin.Context) {
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

	svc := service.NewShareService(c.Request.Context())

	revoked, err := svc.RevokeShare(c.Request.Context(), user, token)
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, types.RevokeShareResponse{Revoked: revoked})
}
