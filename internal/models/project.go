// internal/models/project.go
package models

import (
	"fmt"
	"time"
)

// 阶段状态
const (
	StageStatusPending    = "pending"
	StageStatusInProgress = "in_progress"
	StageStatusCompleted  = "completed"
	StageStatusError      = "error"
)

// StageNames 按阶段编号排列的短名（state.json的键使用 "{N}_{name}"）
var StageNames = []string{
	"load", "format", "compare", "plan", "write",
	"merge", "edit", "analyze", "select", "generate",
}

// StageProgress 多条目阶段的进度子记录
type StageProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// StageRecord 单个阶段在state.json中的记录
type StageRecord struct {
	Status       string         `json:"status"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	FailedAt     *time.Time     `json:"failed_at,omitempty"`
	OutputFile   string         `json:"output_file,omitempty"`
	TokensUsed   int            `json:"tokens_used,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Progress     *StageProgress `json:"progress,omitempty"`
}

// InputInfo 项目输入文件的描述
type InputInfo struct {
	OriginalFile string `json:"original_file,omitempty"`
	OriginalSize int    `json:"original_size,omitempty"`
	Format       string `json:"format,omitempty"`
}

// PipelineInfo 管线进度描述
type PipelineInfo struct {
	CurrentStage int                     `json:"current_stage"`
	Stages       map[string]*StageRecord `json:"stages"`
}

// GeneratedMaterial 已生成的营销材料记录
type GeneratedMaterial struct {
	ID          string    `json:"id"`
	File        string    `json:"file"`
	GeneratedAt time.Time `json:"generated_at"`
}

// MaterialsInfo 材料选择与生成结果
type MaterialsInfo struct {
	Selected  []string            `json:"selected"`
	Generated []GeneratedMaterial `json:"generated"`
}

// Statistics 项目累计统计
type Statistics struct {
	TotalTokensUsed  int     `json:"total_tokens_used"`
	TotalAPICalls    int     `json:"total_api_calls"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
}

// ProjectState 项目的持久化状态（state.json）
type ProjectState struct {
	Version     string            `json:"version"`
	ProjectName string            `json:"project_name"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Config      map[string]string `json:"config"`
	Input       InputInfo         `json:"input"`
	Pipeline    PipelineInfo      `json:"pipeline"`
	Materials   MaterialsInfo     `json:"materials"`
	Statistics  Statistics        `json:"statistics"`
}

// ProjectSummary 项目列表展示用的摘要
type ProjectSummary struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CurrentStage int       `json:"current_stage"`
}

// StageKey 返回阶段在state.json中的键，例如 "2_format"
// 键使用不补零的编号，与阶段产物文件名（补零）区分
func StageKey(stageNum int) string {
	if stageNum < 1 || stageNum > len(StageNames) {
		return ""
	}
	return fmt.Sprintf("%d_%s", stageNum, StageNames[stageNum-1])
}
