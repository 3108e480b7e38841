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

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/config"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/repository"
)

// 精简入口：只挂健康检查和数据库诊断端点，用于部署排障
func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

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

	// 初始化数据库连接
	db, err := repository.NewDatabase(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer db.Close()

	// 初始化Repository
	runRepo := repository.NewRunRepository(db.GetDB(), logger)

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
			"success":     true,
			"database":    "connected",
			"recent_runs": len(runs),
			"timestamp":   time.Now().Format(time.RFC3339),
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
		logger.Info("🚀 诊断服务器启动成功",
			zap.String("port", cfg.Server.Port),
			zap.String("url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port)))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号优雅关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")

	// 给定5秒的关闭时间
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
