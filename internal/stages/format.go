// internal/stages/format.go
package stages

import (
	"context"
	"fmt"
)

// FormatStage 第2阶段：把原始转写整理为按发言人分段的结构化文本
type FormatStage struct{}

func (s *FormatStage) Number() int  { return 2 }
func (s *FormatStage) Name() string { return "format" }

func (s *FormatStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	transcript, err := env.readStageFile("01_loaded.md")
	if err != nil {
		return nil, err
	}

	systemPrompt, err := env.Prompts.Prompt("02_format")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf("Транскрипция интервью:\n\n%s", transcript)
	resp, err := env.LLM.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	if err := env.saveStageFile("02_formatted.md", resp.Text); err != nil {
		return nil, err
	}

	return &Result{
		OutputFile: "stages/02_formatted.md",
		TokensUsed: resp.TokensUsed,
		APICalls:   1,
		Summary:    "转写已格式化",
	}, nil
}
