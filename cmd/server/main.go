// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkoff/habrpipe/internal/api"
	"github.com/avolkoff/habrpipe/internal/app"
	"github.com/avolkoff/habrpipe/internal/config"
	"github.com/avolkoff/habrpipe/internal/di"
	"github.com/avolkoff/habrpipe/internal/utils"
)

func main() {
	log.Println("启动 habrpipe 服务器...")

	// 1. 加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 创建必要的目录
	createDirectories(baseConfig)

	// 3. 初始化配置系统与日志
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("初始化配置系统失败: %v", err)
	}
	if err := utils.InitLogger(filepath.Join(baseConfig.LogDir, "habrpipe.log")); err != nil {
		log.Printf("警告: 初始化文件日志失败: %v", err)
	}

	// 4. 初始化所有服务（按依赖顺序）
	if err := app.InitServices(); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}

	if err := performHealthCheck(); err != nil {
		log.Fatalf("服务健康检查失败: %v", err)
	}

	// 5. 设置路由（只获取服务，不创建）
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("设置路由失败: %v", err)
	}

	log.Printf("服务器启动在端口 %s", baseConfig.Port)
	setupGracefulShutdown(router, baseConfig.Port)
}

// performHealthCheck 检查关键服务是否已注册
func performHealthCheck() error {
	container := di.GetContainer()

	criticalServices := []string{"pipeline", "state", "prompts", "llm"}
	for _, serviceName := range criticalServices {
		if service := container.Get(serviceName); service == nil {
			return fmt.Errorf("关键服务未注册: %s", serviceName)
		}
	}
	return nil
}

// setupGracefulShutdown 启动服务器并处理优雅关闭
func setupGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器强制关闭: %v", err)
	}

	log.Println("服务器已关闭")
}

// createDirectories 创建应用所需的目录结构
func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		cfg.ProjectsDir,
		cfg.PromptsDir,
		filepath.Join(cfg.PromptsDir, "materials"),
		cfg.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("创建目录失败 %s: %v", dir, err)
		}
	}
}
