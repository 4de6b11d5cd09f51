// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avolkoff/habrpipe/internal/config"
	"github.com/avolkoff/habrpipe/internal/di"
	"github.com/avolkoff/habrpipe/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 只从容器获取服务，不创建新实例
	pipeline, ok := container.Get("pipeline").(*services.PipelineService)
	if !ok {
		return nil, fmt.Errorf("管线服务未正确初始化")
	}
	prompts, ok := container.Get("prompts").(*services.PromptService)
	if !ok {
		return nil, fmt.Errorf("提示词服务未正确初始化")
	}
	progress, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}
	export, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}
	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		return nil, fmt.Errorf("生成服务未正确初始化")
	}

	handler := NewHandler(pipeline, prompts, progress, export, llmService)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())

	// WebSocket 支持
	r.GET("/ws/progress/:taskID", handler.ProgressWebSocket)
	r.GET("/ws/preview", handler.PreviewWebSocket)

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)

		projectsGroup := api.Group("/projects")
		{
			projectsGroup.GET("", handler.ListProjects)
			projectsGroup.POST("", handler.CreateProject)
			projectsGroup.GET("/:name", handler.GetProject)
			projectsGroup.DELETE("/:name", handler.DeleteProject)
			projectsGroup.GET("/:name/status", handler.GetProjectStatus)

			projectsGroup.POST("/:name/stages/:num/run", handler.RunStage)
			projectsGroup.POST("/:name/run-range", handler.RunRange)
			projectsGroup.POST("/:name/resume", handler.Resume)

			projectsGroup.GET("/:name/article", handler.GetArticle)
			projectsGroup.POST("/:name/article/export", handler.ExportArticleHTML)
			projectsGroup.GET("/:name/materials", handler.GetProjectMaterials)
			projectsGroup.GET("/:name/materials/:id", handler.GetProjectMaterial)
		}

		api.GET("/materials", handler.GetMaterialCatalog)

		promptsGroup := api.Group("/prompts")
		{
			promptsGroup.GET("", handler.ListPrompts)
			promptsGroup.GET("/resolve", handler.GetPrompt)
			promptsGroup.PUT("", handler.SavePrompt)
			promptsGroup.DELETE("", handler.ResetPrompt)
		}

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
			llmGroup.PUT("/config", handler.UpdateLLMConfig)
		}
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware 为每个请求生成追踪ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}
