// Package router 管理路由配置，将路径与 pkg/internal/handle 中的处理器绑定.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/configs"
	"github.com/yeisme/vaultshare/pkg/middleware"
)

// Register 绑定全部路由：
//
//	/api/v1/shares...         owner 管理面（认证中间件保护）
//	/api/v1/analytics         owner 汇总统计
//	/api/v1/public/shares...  匿名公开面
//	/health...                健康检查
func Register(engine *gin.Engine) {
	RegisterHealthCheckRoute(engine)

	api := engine.Group("/api/v1")

	owner := api.Group("")
	owner.Use(middleware.AuthMiddleware(configs.GetConfig().Auth))
	RegisterSharesRoutes(owner)

	RegisterPublicRoutes(api.Group("/public"))
}
