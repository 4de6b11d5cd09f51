// internal/stages/plan.go
package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/models"
)

// PlanStage 第4阶段：基于校正后的转写生成结构化文章计划
// 模型必须返回符合约定的JSON，结构不合法时阶段失败
type PlanStage struct {
	// ExtractJSON 从模型回复里提取JSON文本，由服务层注入
	ExtractJSON func(string) string
}

func (s *PlanStage) Number() int  { return 4 }
func (s *PlanStage) Name() string { return "plan" }

func (s *PlanStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	transcript, err := env.readStageFile("03_corrected.md")
	if err != nil {
		return nil, err
	}

	systemPrompt, err := env.Prompts.Prompt("04_plan")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf("Расшифровка интервью:\n\n%s", transcript)
	resp, err := env.LLM.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	raw := resp.Text
	if s.ExtractJSON != nil {
		raw = s.ExtractJSON(raw)
	}

	var plan models.ArticlePlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, apperrors.NewInvalidStructure("文章计划不是合法的JSON: " + err.Error())
	}
	if problems := plan.Validate(); len(problems) > 0 {
		return nil, apperrors.NewInvalidStructure("文章计划结构不完整: " + strings.Join(problems, "; "))
	}

	if err := env.FS.SaveJSONFile(env.stagesDir(), "04_plan.json", &plan); err != nil {
		return nil, apperrors.NewProcessing("保存文章计划失败", err)
	}
	if err := env.saveStageFile("04_plan_readable.md", renderPlan(&plan)); err != nil {
		return nil, err
	}

	return &Result{
		OutputFile: "stages/04_plan.json",
		TokensUsed: resp.TokensUsed,
		APICalls:   1,
		Summary:    fmt.Sprintf("计划已生成: %d 个章节", len(plan.Sections)),
	}, nil
}

// renderPlan 把计划渲染成便于人工审阅的Markdown
func renderPlan(plan *models.ArticlePlan) string {
	var sb strings.Builder
	sb.WriteString("# " + plan.Title + "\n\n")
	if plan.Subtitle != "" {
		sb.WriteString("*" + plan.Subtitle + "*\n\n")
	}
	if len(plan.Tags) > 0 {
		sb.WriteString("Теги: " + strings.Join(plan.Tags, ", ") + "\n\n")
	}
	for _, section := range plan.Sections {
		fmt.Fprintf(&sb, "## %d. %s\n\n", section.ID, section.Title)
		for _, point := range section.KeyPoints {
			sb.WriteString("- " + point + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
