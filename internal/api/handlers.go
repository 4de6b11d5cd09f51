// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avolkoff/habrpipe/internal/config"
	"github.com/avolkoff/habrpipe/internal/llm"
	"github.com/avolkoff/habrpipe/internal/models"
	"github.com/avolkoff/habrpipe/internal/services"
	"github.com/avolkoff/habrpipe/internal/utils"
)

// Handler API处理器
type Handler struct {
	pipeline *services.PipelineService
	prompts  *services.PromptService
	progress *services.ProgressService
	export   *services.ExportService
	llm      *services.LLMService
	logger   *utils.Logger
}

// NewHandler 创建API处理器
func NewHandler(pipeline *services.PipelineService, prompts *services.PromptService,
	progress *services.ProgressService, export *services.ExportService,
	llm *services.LLMService) *Handler {
	return &Handler{
		pipeline: pipeline,
		prompts:  prompts,
		progress: progress,
		export:   export,
		llm:      llm,
		logger:   utils.GetLogger(),
	}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"status":   "ok",
		"provider": h.llm.ProviderName(),
	}, "")
}

// ListProjects 列出全部项目
func (h *Handler) ListProjects(c *gin.Context) {
	summaries, err := h.pipeline.ListProjects()
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, summaries, "")
}

// CreateProject 创建项目并加载源文件
// 以 multipart 表单提交：name 字段 + file 文件
func (h *Handler) CreateProject(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		respondBadRequest(c, "缺少项目名称")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "缺少源文件")
		return
	}

	tempDir, err := os.MkdirTemp("", "habrpipe-upload-*")
	if err != nil {
		respondError(c, err)
		return
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		respondError(c, err)
		return
	}

	state, result, err := h.pipeline.CreateProject(c.Request.Context(), name, tempPath)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{
		"state":  state,
		"result": result,
	}, "项目创建成功")
}

// GetProject 返回项目完整状态
func (h *Handler) GetProject(c *gin.Context) {
	state, err := h.pipeline.LoadProject(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state, "")
}

// DeleteProject 删除项目
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.pipeline.DeleteProject(c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, nil, "项目已删除")
}

// GetProjectStatus 返回项目的管线进度摘要
func (h *Handler) GetProjectStatus(c *gin.Context) {
	state, err := h.pipeline.LoadProject(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"project_name":  state.ProjectName,
		"current_stage": state.Pipeline.CurrentStage,
		"stages":        state.Pipeline.Stages,
		"statistics":    state.Statistics,
	}, "")
}

type runStageRequest struct {
	Selected []string `json:"selected"`
	Async    bool     `json:"async"`
}

// RunStage 运行单个阶段
// async 为真时在后台运行并返回进度任务ID
func (h *Handler) RunStage(c *gin.Context) {
	name := c.Param("name")
	stageNum, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		respondBadRequest(c, "无效的阶段编号")
		return
	}

	var req runStageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "请求体解析失败: "+err.Error())
			return
		}
	}

	opts := services.RunOptions{Selected: req.Selected}

	if req.Async {
		taskID := services.NewTaskID()
		opts.TaskID = taskID
		h.progress.CreateTracker(taskID)

		go func() {
			if _, err := h.pipeline.RunStage(context.Background(), name, stageNum, opts); err != nil {
				h.logger.Error("后台阶段运行失败", map[string]interface{}{
					"project": name,
					"stage":   stageNum,
					"error":   err.Error(),
				})
			}
		}()

		respondSuccess(c, http.StatusAccepted, gin.H{"task_id": taskID}, "阶段已在后台启动")
		return
	}

	result, err := h.pipeline.RunStage(c.Request.Context(), name, stageNum, opts)
	if err != nil {
		if result != nil {
			// 阶段执行失败已记录在状态文件中，返回结果与错误
			respondSuccess(c, http.StatusOK, result, "")
			return
		}
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result, "")
}

type runRangeRequest struct {
	From     int      `json:"from"`
	To       int      `json:"to"`
	Selected []string `json:"selected"`
}

// RunRange 顺序运行一段阶段，遇到失败即停止
func (h *Handler) RunRange(c *gin.Context) {
	var req runRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	results, err := h.pipeline.RunRange(c.Request.Context(), c.Param("name"), req.From, req.To,
		services.RunOptions{Selected: req.Selected})
	if err != nil && results == nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, results, "")
}

type resumeRequest struct {
	To       int      `json:"to"`
	Selected []string `json:"selected"`
}

// Resume 从最后完成的阶段之后继续运行
func (h *Handler) Resume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}
	if req.To == 0 {
		req.To = 10
	}

	results, err := h.pipeline.Resume(c.Request.Context(), c.Param("name"), req.To,
		services.RunOptions{Selected: req.Selected})
	if err != nil && results == nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, results, "")
}

// GetArticle 返回成稿的Markdown文本
func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.export.FinalArticle(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.String(http.StatusOK, article)
}

// ExportArticleHTML 把成稿渲染为HTML并返回产物路径
func (h *Handler) ExportArticleHTML(c *gin.Context) {
	path, err := h.export.ExportHTML(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"output_file": path}, "导出成功")
}

// GetMaterialCatalog 返回固定的材料类型目录
func (h *Handler) GetMaterialCatalog(c *gin.Context) {
	catalog := make([]models.MaterialType, 0, len(models.MaterialOrder))
	for _, id := range models.MaterialOrder {
		catalog = append(catalog, models.MaterialTypes[id])
	}
	respondSuccess(c, http.StatusOK, catalog, "")
}

// GetProjectMaterials 返回项目的材料选择与生成记录
func (h *Handler) GetProjectMaterials(c *gin.Context) {
	state, err := h.pipeline.LoadProject(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state.Materials, "")
}

// GetProjectMaterial 返回某个已生成材料的文本
func (h *Handler) GetProjectMaterial(c *gin.Context) {
	id := c.Param("id")
	mt, ok := models.MaterialTypes[id]
	if !ok {
		respondBadRequest(c, "未知的材料类型: "+id)
		return
	}

	content, err := h.export.Material(c.Param("name"), mt.OutputFile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.String(http.StatusOK, content)
}

// ListPrompts 列出全部提示词及其来源
func (h *Handler) ListPrompts(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.prompts.List(), "")
}

// GetPrompt 解析单个提示词，键通过 key 查询参数传入
func (h *Handler) GetPrompt(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondBadRequest(c, "缺少 key 参数")
		return
	}

	info, err := h.prompts.Resolve(key)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, info, "")
}

type savePromptRequest struct {
	Key       string `json:"key" binding:"required"`
	Content   string `json:"content" binding:"required"`
	ToProject bool   `json:"to_project"`
	Project   string `json:"project"`
}

// SavePrompt 保存提示词覆盖
func (h *Handler) SavePrompt(c *gin.Context) {
	var req savePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	if req.ToProject && req.Project != "" {
		state, err := h.pipeline.LoadProject(req.Project)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := h.prompts.SetProjectDir(h.pipeline.ProjectDir(state.ProjectName)); err != nil {
			respondError(c, err)
			return
		}
	}

	if err := h.prompts.Save(req.Key, req.Content, req.ToProject); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, nil, "提示词已保存")
}

// ResetPrompt 删除提示词的全部覆盖，恢复为内置默认
func (h *Handler) ResetPrompt(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondBadRequest(c, "缺少 key 参数")
		return
	}
	if project := c.Query("project"); project != "" {
		state, err := h.pipeline.LoadProject(project)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := h.prompts.SetProjectDir(h.pipeline.ProjectDir(state.ProjectName)); err != nil {
			respondError(c, err)
			return
		}
	}

	removed, err := h.prompts.Reset(key)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"removed": removed}, "")
}

// GetLLMStatus 返回当前LLM配置状态与可用的提供者列表
func (h *Handler) GetLLMStatus(c *gin.Context) {
	cfg := config.GetCurrentConfig()
	available := llm.ListProviders()
	sort.Strings(available)
	respondSuccess(c, http.StatusOK, gin.H{
		"provider":      h.llm.ProviderName(),
		"available":     available,
		"default_model": cfg.DefaultModel,
		"configured":    cfg.LLMConfig["api_key"] != "",
	}, "")
}

type updateLLMConfigRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Config   map[string]string `json:"config" binding:"required"`
}

// UpdateLLMConfig 更新LLM配置并持久化
// 新配置在服务重启后对生成生效
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req updateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "请求体解析失败: "+err.Error())
		return
	}

	if err := config.UpdateLLMConfig(req.Provider, req.Config); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, nil, "配置已更新")
}
