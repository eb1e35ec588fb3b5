// Package handle 健康检查处理器实现.
package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/vaultshare/pkg/context"
)

const healthTimeout = 2 * time.Second

// HealthLive 存活探针，进程起来即 ok.
func HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthReady 就绪探针：依赖全部可用才返回 200.
func HealthReady(c *gin.Context) {
	components := gin.H{}
	healthy := true

	if err := pingDB(c); err != nil {
		components["db"] = err.Error()
		healthy = false
	} else {
		components["db"] = "ok"
	}

	if mqc := ctxPkg.GetMQClient(c.Request.Context()); mqc == nil {
		components["mq"] = "mq client not initialized"
		healthy = false
	} else {
		components["mq"] = "ok"
	}

	status, text := http.StatusOK, "ok"
	if !healthy {
		status, text = http.StatusServiceUnavailable, "unhealthy"
	}

	c.JSON(status, gin.H{"status": text, "components": components})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	if err := pingDB(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil { // publisher 与 subscriber 初始化在 New 中, 判空即可
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "mq", "status": "unhealthy", "error": "mq client not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}

func pingDB(c *gin.Context) error {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil { // dbc.DB 来自于嵌入的 *gorm.DB
		return errNotInitialized
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	sqlDB, err := dbc.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

var errNotInitialized = errors.New("db client not initialized")
