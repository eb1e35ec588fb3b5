package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/internal/handle"
)

// RegisterPublicRoutes 注册匿名公开面路由，凭 token 访问，无需认证.
func RegisterPublicRoutes(g *gin.RouterGroup) {
	publicRoutes := g.Group("/shares")
	{
		publicRoutes.GET("/:token", handle.ShareMetadata)         // 公开元数据（404 vs 410）
		publicRoutes.GET("/:token/file", handle.ReadSharedFile)   // 读文件 ?path=
		publicRoutes.GET("/:token/tree", handle.ListSharedTree)   // 列目录
		publicRoutes.PUT("/:token/file", handle.WriteSharedFile)  // writer 模式写入 ?path=
		publicRoutes.POST("/:token/deposit", handle.DepositFiles) // 匿名投递上传
	}
}
