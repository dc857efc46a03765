package app

import (
	"context"
	"log"
	"math_missions_backend/internal/config"
	"math_missions_backend/internal/controller"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/util"
	"math_missions_backend/pkg/configwatcher"
	"math_missions_backend/pkg/database"
	"math_missions_backend/pkg/logger"
	"math_missions_backend/pkg/monitoring"
	"math_missions_backend/pkg/security"
	"math_missions_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config     *config.Config
	ConfigPath string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client

	services        *services
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	cancel          context.CancelFunc
}

type repositories struct {
	user         *repository.UserRepository
	skill        *repository.SkillRepository
	mission      *repository.MissionRepository
	attempt      *repository.AttemptRepository
	content      *repository.ContentRepository
	reasoningLog *repository.ReasoningLogRepository
}

type services struct {
	auth          *service.AuthService
	storage       *service.StorageService
	mission       *service.MissionService
	attempt       *service.AttemptService
	skillProgress *service.SkillProgressService
	reasoningLog  *service.ReasoningLogService
	quiz          *service.QuizService
	content       *service.ContentService
	report        *service.ReportService
	dashboard     *service.DashboardService
}

type controllers struct {
	auth         *controller.AuthController
	mission      *controller.MissionController
	attempt      *controller.AttemptController
	reasoningLog *controller.ReasoningLogController
	content      *controller.ContentController
	quiz         *controller.QuizController
	dashboard    *controller.DashboardController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		skill:        repository.NewSkillRepository(db),
		mission:      repository.NewMissionRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		content:      repository.NewContentRepository(db),
		reasoningLog: repository.NewReasoningLogRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.mission = service.NewMissionService(repos.mission, repos.attempt, repos.skill, rdb, cfg)
	s.skillProgress = service.NewSkillProgressService(repos.skill, repos.mission, repos.attempt)
	s.attempt = service.NewAttemptService(repos.attempt, repos.mission, s.skillProgress)
	s.reasoningLog = service.NewReasoningLogService(
		repos.reasoningLog,
		repos.mission,
		repos.content,
		repos.user,
		repos.attempt,
		cfg,
	)
	s.quiz = service.NewQuizService(cfg)
	s.content = service.NewContentService(repos.content, s.storage)
	s.report = service.NewReportService(repos.user, repos.mission, repos.attempt, repos.skill)
	s.dashboard = service.NewDashboardService(
		repos.user,
		repos.mission,
		repos.attempt,
		repos.skill,
		repos.content,
		repos.reasoningLog,
		s.skillProgress,
		s.report,
	)

	// 任务编排上限与缓存时长支持热更新
	a.RegisterConfigCallback(s.mission.ApplyConfig)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		mission:      controller.NewMissionController(s.mission),
		attempt:      controller.NewAttemptController(s.attempt),
		reasoningLog: controller.NewReasoningLogController(s.reasoningLog),
		content:      controller.NewContentController(s.content),
		quiz:         controller.NewQuizController(s.quiz),
		dashboard:    controller.NewDashboardController(s.dashboard, s.report),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 限流条目清理与配置热更新
func (a *App) startBackgroundTasks(ctx context.Context) {
	go a.limiter.Cleanup(ctx)

	if a.ConfigPath == "" {
		return
	}
	watcher := configwatcher.New(a.ConfigPath)
	for _, cb := range a.configCallbacks {
		watcher.OnReload(cb)
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// seed 目录表为空时导入种子数据，并确保存在管理员
func (a *App) seed(db *gorm.DB, cfg *config.Config) {
	if cfg.Server.Mode == "release" && !cfg.ForceSeed {
		return
	}
	if seed, err := database.LoadSeedFile(cfg.Seed.File); err != nil {
		logger.Log.Warn("Seed file not loaded", zap.String("file", cfg.Seed.File), zap.Error(err))
	} else if err := database.SeedCatalog(db, seed); err != nil {
		logger.Log.Error("Seed catalog failed", zap.Error(err))
	}
	if err := database.EnsureAdmin(db, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		logger.Log.Error("Ensure admin failed", zap.Error(err))
	}
}

// NewApp configPath 为空时不启用配置热更新
func NewApp(cfg *config.Config, configPath string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:     cfg,
		ConfigPath: configPath,
		DB:         db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	app.seed(db, cfg)

	if err := util.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("math-missions", cfg.Tracing.CollectorEndpoint)
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
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
