package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/middleware"
)

// JobsStatus 列出后台定时任务的调度状态.
func JobsStatus(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}
