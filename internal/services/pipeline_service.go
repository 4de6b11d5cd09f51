// internal/services/pipeline_service.go
package services

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/models"
	"github.com/avolkoff/habrpipe/internal/stages"
	"github.com/avolkoff/habrpipe/internal/storage"
	"github.com/avolkoff/habrpipe/internal/utils"
)

// RunOptions 阶段运行的可选参数
type RunOptions struct {
	InputFile string   // 源文件绝对路径，仅第1阶段使用
	Selected  []string // 材料类型选择，仅第9阶段使用
	TaskID    string   // 进度跟踪任务ID，可为空
}

// StageRunResult 单个阶段的运行结果
type StageRunResult struct {
	Stage           int     `json:"stage"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	OutputFile      string  `json:"output_file,omitempty"`
	TokensUsed      int     `json:"tokens_used,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Summary         string  `json:"summary,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// PipelineService 管线编排：阶段门控、统一的执行生命周期、统计累加
type PipelineService struct {
	state    *StateService
	prompts  *PromptService
	llm      *LLMService
	progress *ProgressService
	storage  *storage.FileStorage
	logger   *utils.Logger
}

// NewPipelineService 创建管线服务
func NewPipelineService(state *StateService, prompts *PromptService, llm *LLMService,
	progress *ProgressService, fs *storage.FileStorage) *PipelineService {
	return &PipelineService{
		state:    state,
		prompts:  prompts,
		llm:      llm,
		progress: progress,
		storage:  fs,
		logger:   utils.GetLogger(),
	}
}

// CreateProject 创建项目并立即运行第1阶段加载源文件
func (s *PipelineService) CreateProject(ctx context.Context, name, inputFile string) (*models.ProjectState, *StageRunResult, error) {
	if inputFile == "" {
		return nil, nil, apperrors.NewValidation("未指定源文件")
	}

	state, err := s.state.CreateProject(name)
	if err != nil {
		return nil, nil, err
	}

	model, temperature := s.llm.ModelDefaults()
	if model != "" {
		state.Config["model"] = model
	}
	state.Config["temperature"] = strconv.FormatFloat(temperature, 'f', -1, 64)
	if err := s.state.Save(name, state); err != nil {
		return nil, nil, err
	}

	result, err := s.RunStage(ctx, name, 1, RunOptions{InputFile: inputFile})
	if err != nil {
		return state, result, err
	}

	state, err = s.state.Load(name)
	if err != nil {
		return nil, result, err
	}
	return state, result, nil
}

// ProjectDir 返回项目的绝对目录
func (s *PipelineService) ProjectDir(name string) string {
	return s.state.ProjectDir(name)
}

// LoadProject 读取项目状态
func (s *PipelineService) LoadProject(name string) (*models.ProjectState, error) {
	return s.state.Load(name)
}

// ListProjects 列出全部项目摘要
func (s *PipelineService) ListProjects() ([]models.ProjectSummary, error) {
	return s.state.ListProjects()
}

// DeleteProject 删除项目目录及全部产物
func (s *PipelineService) DeleteProject(name string) error {
	if _, err := s.state.Load(name); err != nil {
		return err
	}
	if err := os.RemoveAll(s.state.ProjectDir(name)); err != nil {
		return apperrors.NewProcessing("删除项目失败", err)
	}
	s.logger.Info("项目已删除", map[string]interface{}{"project": name})
	return nil
}

// RunStage 运行单个阶段，统一处理状态流转与失败边界
// 阶段门控失败返回 OutOfOrder 错误，不修改状态文件
func (s *PipelineService) RunStage(ctx context.Context, name string, stageNum int, opts RunOptions) (*StageRunResult, error) {
	state, err := s.state.Load(name)
	if err != nil {
		return nil, err
	}
	if err := s.state.CanRunStage(state, stageNum); err != nil {
		return nil, err
	}

	stage, err := stages.New(stageNum, ExtractJSON)
	if err != nil {
		return nil, err
	}

	// 每次运行持有自己的项目级解析器，并发运行其他项目时绑定不会被换掉
	runPrompts, err := s.prompts.ForProject(s.state.ProjectDir(name))
	if err != nil {
		return nil, err
	}

	s.state.MarkStageStarted(state, stageNum)
	if err := s.state.Save(name, state); err != nil {
		return nil, err
	}

	env := &stages.Env{
		Project:   name,
		FS:        s.storage,
		Prompts:   runPrompts,
		LLM:       s.llm,
		State:     state,
		InputFile: opts.InputFile,
		Selected:  opts.Selected,
	}

	rec := s.state.StageRecord(state, stageNum)
	var tracker *ProgressTracker
	if opts.TaskID != "" && s.progress != nil {
		tracker = s.progress.CreateTracker(opts.TaskID)
	}
	env.OnProgress = func(current, total int, message string) {
		rec.Progress = &models.StageProgress{Current: current, Total: total}
		// 进度立即落盘，中途崩溃后状态文件仍能反映走到了哪一步
		if err := s.state.Save(name, state); err != nil {
			s.logger.Warn("保存阶段进度失败", map[string]interface{}{
				"project": name,
				"error":   err.Error(),
			})
		}
		if tracker != nil && total > 0 {
			tracker.UpdateProgress(current*100/total, message)
		}
	}

	s.logger.Info("阶段开始", map[string]interface{}{
		"project": name,
		"stage":   models.StageKey(stageNum),
	})

	start := time.Now()
	result, execErr := stage.Execute(ctx, env)
	duration := time.Since(start).Seconds()

	runResult := &StageRunResult{
		Stage:           stageNum,
		Name:            stage.Name(),
		DurationSeconds: duration,
	}

	if execErr != nil {
		s.state.MarkStageFailed(state, stageNum, execErr.Error())
		s.state.UpdateStatistics(state, 0, 0, duration)
		if saveErr := s.state.Save(name, state); saveErr != nil {
			s.logger.Error("保存失败状态时出错", map[string]interface{}{"error": saveErr.Error()})
		}
		if tracker != nil {
			tracker.Fail(execErr.Error())
		}

		runResult.Status = models.StageStatusError
		runResult.Error = execErr.Error()
		s.logger.Error("阶段失败", map[string]interface{}{
			"project": name,
			"stage":   models.StageKey(stageNum),
			"error":   execErr.Error(),
		})
		return runResult, execErr
	}

	s.state.MarkStageCompleted(state, stageNum, result.OutputFile, result.TokensUsed)
	s.state.UpdateStatistics(state, result.TokensUsed, result.APICalls, duration)
	if err := s.state.Save(name, state); err != nil {
		return nil, err
	}
	if tracker != nil {
		tracker.Complete(result.Summary)
	}

	runResult.Status = models.StageStatusCompleted
	runResult.OutputFile = result.OutputFile
	runResult.TokensUsed = result.TokensUsed
	runResult.Summary = result.Summary

	s.logger.Info("阶段完成", map[string]interface{}{
		"project": name,
		"stage":   models.StageKey(stageNum),
		"tokens":  result.TokensUsed,
		"seconds": duration,
	})
	return runResult, nil
}

// RunRange 按顺序运行一段阶段，遇到第一个失败即停止
// 返回值包含已运行全部阶段的结果（含失败的那个）
func (s *PipelineService) RunRange(ctx context.Context, name string, from, to int, opts RunOptions) ([]*StageRunResult, error) {
	if from < 1 || to > stages.StageCount || from > to {
		return nil, apperrors.NewValidation("无效的阶段区间")
	}

	var results []*StageRunResult
	for n := from; n <= to; n++ {
		result, err := s.RunStage(ctx, name, n, opts)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Resume 从最后一个完成的阶段之后继续运行到指定阶段
func (s *PipelineService) Resume(ctx context.Context, name string, to int, opts RunOptions) ([]*StageRunResult, error) {
	state, err := s.state.Load(name)
	if err != nil {
		return nil, err
	}

	from := s.state.LastCompletedStage(state) + 1
	if from > to {
		return nil, nil
	}
	return s.RunRange(ctx, name, from, to, opts)
}
