package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/controller"
	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/repository/memory"
	"blueprep_backend/internal/service"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/configwatcher"
	"blueprep_backend/pkg/database"
	"blueprep_backend/pkg/logger"
	"blueprep_backend/pkg/monitoring"
	"blueprep_backend/pkg/security"
	"blueprep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Store           repository.Store
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type services struct {
	operators   *service.OperatorSet
	storage     *service.StorageService
	lifecycle   *service.LifecycleService
	submission  *service.SubmissionService
	participant *service.ParticipantService
	leaderboard *service.LeaderboardService
	publisher   *service.ReportPublisher
	sweeper     *service.ExpirySweeper
	broadcast   *service.BroadcastService
}

type controllers struct {
	test        *controller.TestController
	submission  *controller.SubmissionController
	participant *controller.ParticipantController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initStore(cfg *config.Config) repository.Store {
	if cfg.Database.Driver == "memory" {
		logger.Log.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore()
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	// 非 release 模式或显式指定时执行迁移
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	a.DB = db
	return repository.NewGormStore(db)
}

func (a *App) initServices(store repository.Store, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	s.operators = service.NewOperatorSet(cfg.Admin.Operators)
	s.storage = service.NewStorageService(cfg)
	s.lifecycle = service.NewLifecycleService(store, s.operators)
	s.submission = service.NewSubmissionService(store, store, store, cfg.Scheduler.LateTolerance)
	s.participant = service.NewParticipantService(store)
	s.leaderboard = service.NewLeaderboardService(store, store, rdb, cfg.Redis.LeaderboardTTL)
	s.publisher = service.NewReportPublisher(s.leaderboard, s.storage, service.NewDeliverer(&cfg.Notify), s.operators, cfg.Notify.Concurrency)
	s.sweeper = service.NewExpirySweeper(store, s.lifecycle, s.publisher)
	s.broadcast = service.NewBroadcastService(store, service.LogMessenger{}, s.operators, cfg.Notify.Concurrency)

	if len(cfg.Admin.Operators) == 0 {
		logger.Log.Warn("No operators configured, admin endpoints will reject every caller")
	}
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		test:        controller.NewTestController(s.lifecycle, s.leaderboard, s.publisher, s.sweeper, s.broadcast),
		submission:  controller.NewSubmissionController(s.submission),
		participant: controller.NewParticipantController(s.participant),
		health:      controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// hotReload applies the settings that may change without a restart.
func (a *App) hotReload(newCfg *config.Config) {
	a.services.operators.Replace(newCfg.Admin.Operators)
	a.services.submission.SetLateTolerance(newCfg.Scheduler.LateTolerance)
	logger.Log.Info("Hot settings applied",
		zap.Int("operators", len(newCfg.Admin.Operators)),
		zap.Duration("late_tolerance", newCfg.Scheduler.LateTolerance))
}

func (a *App) startBackgroundTasks(s *services) {
	s.sweeper.Start(a.Config.Scheduler.SweepInterval, a.Config.Scheduler.InitialDelay)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg}
	app.Store = app.initStore(cfg)
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	app.services = app.initServices(app.Store, cfg, app.Redis)
	controllers := app.initControllers(app.services)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("blueprep", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, app.services)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/reports", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(app.hotReload)
	app.startBackgroundTasks(app.services)
	return app
}

func (a *App) watchConfig(ctx context.Context) {
	file := a.Config.File()
	err := configwatcher.WatchConfig(ctx, file, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config watcher disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.services.sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
	_ = logger.Log.Sync()
}

// Close releases clients held by the app.
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
