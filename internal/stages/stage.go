// internal/stages/stage.go
package stages

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/llm"
	"github.com/avolkoff/habrpipe/internal/models"
	"github.com/avolkoff/habrpipe/internal/storage"
)

// Generator 文本生成入口，由服务层实现
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*llm.CompletionResponse, error)
}

// PromptSource 提示词解析入口，由服务层实现
type PromptSource interface {
	Prompt(key string) (string, error)
}

// Env 阶段执行环境
type Env struct {
	Project string               // 项目名称，存储路径的第一段
	FS      *storage.FileStorage // 以项目集合目录为根
	Prompts PromptSource
	LLM     Generator
	State   *models.ProjectState

	// InputFile 源文件的绝对路径，仅第1阶段使用
	InputFile string

	// Selected 选定的材料类型，仅第9阶段使用
	Selected []string

	// OnProgress 多条目阶段的进度回调，可为空
	OnProgress func(current, total int, message string)
}

// Result 阶段执行结果
type Result struct {
	OutputFile string // 主产物相对项目目录的路径
	TokensUsed int
	APICalls   int
	Summary    string // 面向用户的一句话结果描述
}

// Stage 管线阶段。Execute 只负责业务逻辑，
// 状态记录与失败边界由编排层统一处理
type Stage interface {
	Number() int
	Name() string
	Execute(ctx context.Context, env *Env) (*Result, error)
}

func (e *Env) stagesDir() string {
	return e.Project + "/stages"
}

func (e *Env) outputDir() string {
	return e.Project + "/output"
}

// readStageFile 读取本项目 stages/ 下的产物
func (e *Env) readStageFile(filename string) (string, error) {
	if !e.FS.FileExists(e.stagesDir(), filename) {
		return "", apperrors.NewNotFound(fmt.Sprintf("缺少上游阶段产物: %s", filename))
	}
	data, err := e.FS.LoadTextFile(e.stagesDir(), filename)
	if err != nil {
		return "", apperrors.NewProcessing(fmt.Sprintf("读取阶段产物失败: %s", filename), err)
	}
	return string(data), nil
}

// saveStageFile 写入本项目 stages/ 下的产物
func (e *Env) saveStageFile(filename, content string) error {
	if err := e.FS.SaveTextFile(e.stagesDir(), filename, []byte(content)); err != nil {
		return apperrors.NewProcessing(fmt.Sprintf("保存阶段产物失败: %s", filename), err)
	}
	return nil
}

// loadPlan 读取第4阶段的结构化计划
func (e *Env) loadPlan() (*models.ArticlePlan, error) {
	if !e.FS.FileExists(e.stagesDir(), "04_plan.json") {
		return nil, apperrors.NewNotFound("缺少文章计划: 04_plan.json")
	}
	var plan models.ArticlePlan
	if err := e.FS.LoadJSONFile(e.stagesDir(), "04_plan.json", &plan); err != nil {
		return nil, apperrors.NewProcessing("文章计划解析失败", err)
	}
	return &plan, nil
}

func (e *Env) progress(current, total int, message string) {
	if e.OnProgress != nil {
		e.OnProgress(current, total, message)
	}
}

// slugify 将章节标题转为文件名片段：小写，非字母数字折叠为下划线，最长30字符
func slugify(title string, maxLen int) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			sb.WriteRune('_')
			lastUnderscore = true
		}
	}

	slug := strings.Trim(sb.String(), "_")
	if slug == "" {
		slug = "section"
	}

	runes := []rune(slug)
	if len(runes) > maxLen {
		slug = strings.Trim(string(runes[:maxLen]), "_")
	}
	return slug
}

// sectionFileName 第5阶段单个章节的文件名，例如 "03_monitoring.md"
func sectionFileName(index int, title string) string {
	return fmt.Sprintf("%02d_%s.md", index, slugify(title, 30))
}
