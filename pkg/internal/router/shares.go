package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/cache"
	"github.com/yeisme/vaultshare/pkg/internal/handle"
	"github.com/yeisme/vaultshare/pkg/internal/storage"
	"github.com/yeisme/vaultshare/pkg/middleware"
)

// RegisterSharesRoutes 注册 owner 管理面路由.
// 统计接口按需聚合，挂一层短 TTL 响应缓存；key 按用户身份区分.
// 管理操作（创建/撤销）与列表必须每次读真源，不缓存.
func RegisterSharesRoutes(g *gin.RouterGroup) {
	statsCache := middleware.CacheMiddleware(middleware.CacheConfig{
		Cache:       cache.NewCache(storage.KV()),
		VaryHeaders: []string{"X-Forwarded-Email", "X-User"},
	})

	sharesRoutes := g.Group("/shares")
	{
		sharesRoutes.POST("", handle.CreateShare)                                // 创建分享链接
		sharesRoutes.GET("", handle.ListShares)                                  // 我的分享列表
		sharesRoutes.DELETE("/:token", handle.RevokeShare)                       // 撤销分享
		sharesRoutes.GET("/:token/analytics", statsCache, handle.ShareAnalytics) // 单分享统计
	}

	g.GET("/analytics", statsCache, handle.OwnerAnalytics) // owner 汇总统计
	g.GET("/jobs", handle.JobsStatus)                      // 后台任务状态

}
