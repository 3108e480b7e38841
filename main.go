package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/checker"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/client"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/config"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/handler"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/logger"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/repository"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/service"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/worker"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志（文件按天滚动 + 标准输出）
	zapLogger, err := logger.New(cfg.Log.Dir)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)

	// 创建路由
	router := gin.Default()

	// 健康检查端点
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "steam-account-checker",
			"version":   "1.0.0",
		})
	})

	// 基础信息端点
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":    "Steam账号批量检测 API 服务",
			"version":    "1.0.0",
			"tech_stack": "Go + MySQL + Steam Web API",
			"endpoints": gin.H{
				"checks":   "/api/checks",
				"accounts": "/api/accounts",
			},
		})
	})

	// 初始化数据库连接
	db, err := repository.NewDatabase(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer db.Close()

	// 初始化Repository
	runRepo := repository.NewRunRepository(db.GetDB(), zapLogger)
	accountRepo := repository.NewAccountRepository(db.GetDB(), zapLogger)

	// 初始化Client（单key的QPS上限由限流器兜底）
	limiter := rate.NewLimiter(rate.Limit(cfg.Worker.RateLimitQPS), cfg.Worker.RateLimitQPS*2)
	steamClient := client.NewSteamClient(zapLogger, cfg.Steam.RequestTimeout, cfg.Steam.MaxRetries, limiter)
	inventoryClient := client.NewInventoryClient(zapLogger, cfg.Steam.RequestTimeout, cfg.Steam.MaxRetries, limiter)

	// 初始化检测编排器
	chk := checker.NewChecker(steamClient, inventoryClient, zapLogger, cfg.Steam.CheckDelay)

	// 初始化Service
	checkService := service.NewCheckService(cfg, chk, runRepo, accountRepo, zapLogger)

	// 初始化Worker Manager（service实现任务执行，构造后回注）
	workerConfig := worker.ManagerConfig{
		QueueCapacity: cfg.Worker.QueueCapacity,
		Concurrency:   cfg.Worker.Concurrency,
	}
	workerManager := worker.NewManager(workerConfig, checkService, zapLogger)
	checkService.SetWorkerManager(workerManager)

	// 启动Worker Manager
	if err := workerManager.Start(); err != nil {
		zapLogger.Fatal("启动Worker管理器失败", zap.Error(err))
	}
	defer workerManager.Stop()

	// 初始化定时任务服务
	cronService := service.NewCronService(cfg, runRepo, accountRepo, steamClient, zapLogger)

	// 启动定时任务
	if err := cronService.Start(); err != nil {
		zapLogger.Fatal("启动定时任务失败", zap.Error(err))
	}
	defer cronService.Stop()

	// 初始化Handler
	checkHandler := handler.NewCheckHandler(checkService, cfg.Security.SubmitSignSalt, zapLogger)
	accountHandler := handler.NewAccountHandler(checkService, zapLogger)

	// 设置中间件
	router.Use(handler.CORSMiddleware())

	// 创建管理端鉴权中间件
	adminAuth := handler.AdminAuthMiddleware(cfg.Security.AdminKey)

	// 注册API路由
	api := router.Group("/api")
	{
		api.POST("/checks", checkHandler.SubmitCheck)
		api.GET("/checks", checkHandler.ListRuns)
		api.GET("/checks/:id", checkHandler.GetRun)
		api.GET("/checks/:id/progress", checkHandler.GetProgress)
		api.POST("/checks/validate", checkHandler.ValidateLines)
		api.GET("/accounts/valid", accountHandler.ListValidAccounts)

		// 管理端接口
		api.DELETE("/checks/:id", adminAuth, checkHandler.DeleteRun)
		api.DELETE("/accounts/valid", adminAuth, accountHandler.PurgeValidAccounts)
	}

	// 测试API端点
	router.GET("/test/db", func(c *gin.Context) {
		// 测试数据库连接
		if err := db.Ping(); err != nil {
			c.JSON(500, gin.H{"error": "数据库连接失败", "details": err.Error()})
			return
		}

		runs, err := runRepo.ListRuns(10)
		if err != nil {
			c.JSON(500, gin.H{"error": "查询检测任务失败", "details": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"success":      true,
			"database":     "connected",
			"recent_runs":  len(runs),
			"worker_stats": workerManager.GetStats(),
			"timestamp":    time.Now().Format(time.RFC3339),
		})
	})

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 在goroutine中启动服务器
	go func() {
		zapLogger.Info("🚀 服务器启动成功",
			zap.String("port", cfg.Server.Port),
			zap.String("url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port)))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号优雅关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("服务器正在关闭...")

	// 给定5秒的关闭时间
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("服务器强制关闭", zap.Error(err))
	}

	zapLogger.Info("服务器已关闭")
}
