// internal/services/state_service.go
package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/models"
	"github.com/avolkoff/habrpipe/internal/storage"
	"github.com/avolkoff/habrpipe/internal/utils"
)

// StateFileName 项目状态文件名
const StateFileName = "state.json"

// StateVersion 当前状态文件格式版本
const StateVersion = "1.0"

// 项目目录下的固定子目录
var projectSubDirs = []string{
	"input",
	"stages",
	filepath.Join("stages", "05_sections"),
	"output",
	filepath.Join("output", "materials"),
	"prompts",
}

// StateService 管理项目状态文件的读写与阶段记录
// 存储根目录为项目集合目录，项目以名称寻址
type StateService struct {
	storage *storage.FileStorage
	logger  *utils.Logger
}

// NewStateService 创建状态服务
func NewStateService(fs *storage.FileStorage) *StateService {
	return &StateService{
		storage: fs,
		logger:  utils.GetLogger(),
	}
}

// ProjectDir 返回项目的绝对目录
func (s *StateService) ProjectDir(name string) string {
	return filepath.Join(s.storage.BaseDir, name)
}

// CreateProject 创建项目目录骨架并写入初始状态
// 项目已存在时返回 AlreadyExists 错误
func (s *StateService) CreateProject(name string) (*models.ProjectState, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, apperrors.NewValidation(fmt.Sprintf("无效的项目名称: %q", name))
	}
	if s.storage.DirExists(name) {
		return nil, apperrors.NewAlreadyExists(fmt.Sprintf("项目已存在: %s", name))
	}

	for _, sub := range projectSubDirs {
		if err := os.MkdirAll(filepath.Join(s.ProjectDir(name), sub), 0755); err != nil {
			return nil, apperrors.NewProcessing("创建项目目录失败", err)
		}
	}

	now := time.Now().UTC()
	state := &models.ProjectState{
		Version:     StateVersion,
		ProjectName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
		Config:      make(map[string]string),
		Pipeline: models.PipelineInfo{
			CurrentStage: 0,
			Stages:       make(map[string]*models.StageRecord),
		},
	}

	// 预先登记全部阶段，未开始的阶段标记为 pending
	for i := 1; i <= len(models.StageNames); i++ {
		state.Pipeline.Stages[models.StageKey(i)] = &models.StageRecord{
			Status: models.StageStatusPending,
		}
	}

	if err := s.Save(name, state); err != nil {
		return nil, err
	}

	s.logger.Info("项目已创建", map[string]interface{}{"project": name})
	return state, nil
}

// Load 读取项目状态
func (s *StateService) Load(name string) (*models.ProjectState, error) {
	if !s.storage.FileExists(name, StateFileName) {
		return nil, apperrors.NewNotFound(fmt.Sprintf("项目不存在: %s", name))
	}

	var state models.ProjectState
	if err := s.storage.LoadJSONFile(name, StateFileName, &state); err != nil {
		return nil, apperrors.NewProcessing("项目状态文件解析失败", err)
	}

	if state.Pipeline.Stages == nil {
		state.Pipeline.Stages = make(map[string]*models.StageRecord)
	}
	if state.Config == nil {
		state.Config = make(map[string]string)
	}

	return &state, nil
}

// Save 写入项目状态并刷新更新时间
func (s *StateService) Save(name string, state *models.ProjectState) error {
	state.UpdatedAt = time.Now().UTC()
	return s.storage.SaveJSONFile(name, StateFileName, state)
}

// ListProjects 列出全部项目摘要，状态文件损坏的项目跳过并记录警告
func (s *StateService) ListProjects() ([]models.ProjectSummary, error) {
	dirs, err := s.storage.ListDirs("")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewProcessing("读取项目目录失败", err)
	}

	summaries := make([]models.ProjectSummary, 0, len(dirs))
	for _, dir := range dirs {
		state, err := s.Load(dir)
		if err != nil {
			s.logger.Warn("跳过无法解析的项目", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
			continue
		}
		summaries = append(summaries, models.ProjectSummary{
			Name:         state.ProjectName,
			Path:         s.ProjectDir(dir),
			CreatedAt:    state.CreatedAt,
			UpdatedAt:    state.UpdatedAt,
			CurrentStage: state.Pipeline.CurrentStage,
		})
	}
	return summaries, nil
}

// StageRecord 获取指定阶段的记录，不存在时补建 pending 记录
func (s *StateService) StageRecord(state *models.ProjectState, stageNum int) *models.StageRecord {
	key := models.StageKey(stageNum)
	rec, ok := state.Pipeline.Stages[key]
	if !ok {
		rec = &models.StageRecord{Status: models.StageStatusPending}
		state.Pipeline.Stages[key] = rec
	}
	return rec
}

// MarkStageStarted 将阶段标记为进行中并记录开始时间
func (s *StateService) MarkStageStarted(state *models.ProjectState, stageNum int) {
	rec := s.StageRecord(state, stageNum)
	now := time.Now().UTC()
	rec.Status = models.StageStatusInProgress
	rec.StartedAt = &now
	rec.CompletedAt = nil
	rec.FailedAt = nil
	rec.ErrorMessage = ""
	rec.Progress = nil
}

// MarkStageCompleted 将阶段标记为完成，必要时推进当前阶段指针
func (s *StateService) MarkStageCompleted(state *models.ProjectState, stageNum int, outputFile string, tokensUsed int) {
	rec := s.StageRecord(state, stageNum)
	now := time.Now().UTC()
	rec.Status = models.StageStatusCompleted
	rec.CompletedAt = &now
	rec.OutputFile = outputFile
	rec.TokensUsed = tokensUsed
	rec.ErrorMessage = ""

	if stageNum > state.Pipeline.CurrentStage {
		state.Pipeline.CurrentStage = stageNum
	}
}

// MarkStageFailed 将阶段标记为失败并记录错误信息
// 完成时间只在成功时记录，失败时间单独存放；当前阶段指针保持不变
func (s *StateService) MarkStageFailed(state *models.ProjectState, stageNum int, errMsg string) {
	rec := s.StageRecord(state, stageNum)
	now := time.Now().UTC()
	rec.Status = models.StageStatusError
	rec.FailedAt = &now
	rec.ErrorMessage = errMsg
}

// UpdateStatistics 累加项目统计
func (s *StateService) UpdateStatistics(state *models.ProjectState, tokens, apiCalls int, seconds float64) {
	state.Statistics.TotalTokensUsed += tokens
	state.Statistics.TotalAPICalls += apiCalls
	state.Statistics.TotalTimeSeconds += seconds
}

// CanRunStage 检查阶段是否可以运行：前一阶段必须已完成
// 第一阶段总是可以运行，已完成的阶段允许重跑
func (s *StateService) CanRunStage(state *models.ProjectState, stageNum int) error {
	if stageNum < 1 || stageNum > len(models.StageNames) {
		return apperrors.NewValidation(fmt.Sprintf("无效的阶段编号: %d", stageNum))
	}
	if stageNum == 1 {
		return nil
	}

	prev := s.StageRecord(state, stageNum-1)
	if prev.Status != models.StageStatusCompleted {
		return apperrors.NewOutOfOrder(fmt.Sprintf(
			"阶段 %s 尚未完成，无法运行阶段 %s",
			models.StageKey(stageNum-1), models.StageKey(stageNum)))
	}
	return nil
}

// LastCompletedStage 返回连续完成的最后一个阶段编号，全部未完成时返回 0
func (s *StateService) LastCompletedStage(state *models.ProjectState) int {
	last := 0
	for i := 1; i <= len(models.StageNames); i++ {
		rec, ok := state.Pipeline.Stages[models.StageKey(i)]
		if !ok || rec.Status != models.StageStatusCompleted {
			break
		}
		last = i
	}
	return last
}
