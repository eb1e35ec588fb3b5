package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(engine *gin.Engine) {
	healthRoutes := engine.Group("/health")
	{
		healthRoutes.GET("", handle.HealthLive)
		healthRoutes.GET("/ready", handle.HealthReady)
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}
