// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/vaultshare/pkg/api"
	"github.com/yeisme/vaultshare/pkg/configs"
	"github.com/yeisme/vaultshare/pkg/context"
	"github.com/yeisme/vaultshare/pkg/internal/jobs"
	"github.com/yeisme/vaultshare/pkg/internal/service"
	"github.com/yeisme/vaultshare/pkg/internal/storage"
	"github.com/yeisme/vaultshare/pkg/log"
	"github.com/yeisme/vaultshare/pkg/metrics"
	"github.com/yeisme/vaultshare/pkg/middleware"
	"github.com/yeisme/vaultshare/pkg/scheduler"
	"github.com/yeisme/vaultshare/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	sched  *scheduler.Scheduler
	cancel contextPkg.CancelFunc
}

func NewApp(configPath string) *App {
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	// 初始化追踪
	config := configs.GetConfig()
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	baseCtx := context.WithStorageManager(ctx, manager)

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	// 后台任务：过期分享清理、日志保留期裁剪、限流器内存清理
	sched, err := scheduler.NewScheduler()
	if err != nil {
		l.Error().Err(err).Msg("create scheduler")
	} else {
		if err := jobs.RegisterCronJobs(sched, manager); err != nil {
			l.Error().Err(err).Msg("register cron jobs")
		}

		sched.Start()
	}

	engine.Use(
		gin.Recovery(),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.GzipMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
	)

	api.RegisterRoutes(engine)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	// 访问事件订阅方：计数递增与访问日志落库
	if err := service.StartAccessRecorder(baseCtx); err != nil {
		l.Error().Err(err).Msg("start access recorder")
	}

	return &App{
		Engine: engine,
		config: config,
		sched:  sched,
		cancel: cancel,
	}
}

// Run 启动 HTTP 服务并在收到退出信号时优雅关闭.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Logger().Info().Str("addr", srv.Addr).Msg("HTTP server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)

	a.shutdown()

	return err
}

// shutdown 停止后台组件：调度器、访问事件订阅、存储连接.
func (a *App) shutdown() {
	if a.sched != nil {
		if err := a.sched.Stop(); err != nil {
			log.Logger().Warn().Err(err).Msg("stop scheduler")
		}
	}

	a.cancel()
	storage.Close()
}
