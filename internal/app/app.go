// internal/app/app.go
package app

import (
	"fmt"
	"time"

	"github.com/avolkoff/habrpipe/internal/config"
	"github.com/avolkoff/habrpipe/internal/di"
	"github.com/avolkoff/habrpipe/internal/llm"
	"github.com/avolkoff/habrpipe/internal/services"
	"github.com/avolkoff/habrpipe/internal/storage"
	"github.com/avolkoff/habrpipe/internal/utils"

	// 注册LLM提供者
	_ "github.com/avolkoff/habrpipe/internal/llm/providers/google"
	_ "github.com/avolkoff/habrpipe/internal/llm/providers/openai"
)

// progressRetention 已结束进度任务的保留时间
const progressRetention = time.Hour

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	logger := utils.GetLogger()
	container := di.GetContainer()

	projectsFS, err := storage.NewFileStorage(cfg.ProjectsDir)
	if err != nil {
		return fmt.Errorf("初始化项目存储失败: %w", err)
	}
	promptsFS, err := storage.NewFileStorage(cfg.PromptsDir)
	if err != nil {
		return fmt.Errorf("初始化提示词存储失败: %w", err)
	}

	// 未配置API密钥时用空服务代替，只读操作仍可用
	llmService := services.NewEmptyLLMService()
	if cfg.LLMConfig["api_key"] != "" {
		provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
		if err != nil {
			return fmt.Errorf("初始化LLM提供者失败: %w", err)
		}
		llmService = services.NewLLMService(provider)
	} else {
		logger.Warn("未配置API密钥，需要生成的阶段将无法运行", nil)
	}
	llmService.SetModelDefaults(cfg.DefaultModel, cfg.Temperature)

	stateService := services.NewStateService(projectsFS)
	promptService := services.NewPromptService(promptsFS)
	progressService := services.NewProgressService()
	exportService := services.NewExportService(projectsFS)
	pipelineService := services.NewPipelineService(
		stateService, promptService, llmService, progressService, projectsFS)

	container.Register("storage", projectsFS)
	container.Register("llm", llmService)
	container.Register("state", stateService)
	container.Register("prompts", promptService)
	container.Register("progress", progressService)
	container.Register("export", exportService)
	container.Register("pipeline", pipelineService)

	// 定期清理已结束的进度任务
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			progressService.CleanupCompletedTasks(progressRetention)
		}
	}()

	logger.Info("服务初始化完成", map[string]interface{}{
		"provider": llmService.ProviderName(),
		"services": len(container.GetNames()),
	})
	return nil
}
