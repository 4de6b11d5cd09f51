// internal/stages/analyze.go
package stages

import (
	"context"
	"fmt"
)

// AnalyzeStage 第8阶段：对成稿做营销分析，评估可派生的材料类型
type AnalyzeStage struct{}

func (s *AnalyzeStage) Number() int  { return 8 }
func (s *AnalyzeStage) Name() string { return "analyze" }

func (s *AnalyzeStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	article, err := env.readStageFile("07_edited.md")
	if err != nil {
		return nil, err
	}

	systemPrompt, err := env.Prompts.Prompt("08_marketing_analysis")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf("Готовая статья:\n\n%s", article)
	resp, err := env.LLM.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	if err := env.saveStageFile("08_analysis.md", resp.Text); err != nil {
		return nil, err
	}

	return &Result{
		OutputFile: "stages/08_analysis.md",
		TokensUsed: resp.TokensUsed,
		APICalls:   1,
		Summary:    "маркетинговый анализ готов",
	}, nil
}
