// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nidrive/nidrive/pkg/api"
	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/jobs"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/storage"
	"github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/metrics"
	"github.com/nidrive/nidrive/pkg/middleware"
	"github.com/nidrive/nidrive/pkg/scheduler"
	"github.com/nidrive/nidrive/pkg/tracing"
)

type App struct {
	Engine *gin.Engine

	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	// 建表/迁移
	if dbc := manager.GetDBClient(); dbc != nil && dbc.GetDB() != nil {
		if err := dbc.GetDB().AutoMigrate(
			&model.User{},
			&model.Folder{},
			&model.File{},
			&model.AccessToken{},
		); err != nil {
			fmt.Printf("Error migrating database: %v\n", err)
			os.Exit(1)
		}
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.AuthMiddleware(config.Auth),
	)

	// 定时任务：配额对账与过期令牌清理
	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()
	engine.Use(middleware.SchedulerMiddleware(sched))

	api.RegisterGroup(engine, manager)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
	}
}

func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

// Close 释放调度器与存储资源.
func (a *App) Close() error {
	if a.sched != nil {
		_ = a.sched.Shutdown()
	}

	if a.manager != nil {
		return a.manager.Close()
	}

	return nil
}
