// internal/stages/generate.go
package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/models"
)

// GenerateStage 第10阶段：按选定类型生成营销材料，写入 output/materials/
type GenerateStage struct{}

func (s *GenerateStage) Number() int  { return 10 }
func (s *GenerateStage) Name() string { return "generate" }

func (s *GenerateStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	article, err := env.readStageFile("07_edited.md")
	if err != nil {
		return nil, err
	}
	analysis, err := env.readStageFile("08_analysis.md")
	if err != nil {
		return nil, err
	}

	selected := env.State.Materials.Selected
	if len(selected) == 0 {
		return nil, apperrors.NewValidation("материалы не выбраны, сначала выполните этап select")
	}

	materialsDir := env.outputDir() + "/materials"
	total := len(selected)
	totalTokens := 0

	for i, id := range selected {
		mt, ok := models.MaterialTypes[id]
		if !ok {
			return nil, apperrors.NewInvalidStructure("неизвестный тип материала: " + id)
		}

		env.progress(i, total, fmt.Sprintf("Генерируем: %s (%d/%d)", mt.Name, i+1, total))

		systemPrompt, err := env.Prompts.Prompt(mt.PromptFile)
		if err != nil {
			return nil, err
		}

		userPrompt := fmt.Sprintf(
			"Исходная статья:\n\n%s\n\nМаркетинговый анализ:\n\n%s", article, analysis)
		resp, err := env.LLM.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			return nil, err
		}

		if err := env.FS.SaveTextFile(materialsDir, mt.OutputFile, []byte(resp.Text)); err != nil {
			return nil, apperrors.NewProcessing("保存材料失败: "+mt.OutputFile, err)
		}

		recordGenerated(env.State, id, "output/materials/"+mt.OutputFile)
		totalTokens += resp.TokensUsed

		env.progress(i+1, total, fmt.Sprintf("Готово: %s", mt.Name))
	}

	return &Result{
		OutputFile: "output/materials",
		TokensUsed: totalTokens,
		APICalls:   total,
		Summary:    fmt.Sprintf("сгенерировано материалов: %d", total),
	}, nil
}

// recordGenerated 登记生成结果，重复生成的材料替换旧记录
func recordGenerated(state *models.ProjectState, id, file string) {
	entry := models.GeneratedMaterial{
		ID:          id,
		File:        file,
		GeneratedAt: time.Now().UTC(),
	}
	for i, m := range state.Materials.Generated {
		if m.ID == id {
			state.Materials.Generated[i] = entry
			return
		}
	}
	state.Materials.Generated = append(state.Materials.Generated, entry)
}
