// internal/stages/edit.go
package stages

import (
	"context"
	"fmt"

	"github.com/avolkoff/habrpipe/internal/apperrors"
)

// EditStage 第7阶段：对完整草稿做文字润色
type EditStage struct{}

func (s *EditStage) Number() int  { return 7 }
func (s *EditStage) Name() string { return "edit" }

func (s *EditStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	draft, err := env.readStageFile("06_merged.md")
	if err != nil {
		return nil, err
	}

	systemPrompt, err := env.Prompts.Prompt("07_literary_edit")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf("Статья для редактуры:\n\n%s", draft)
	resp, err := env.LLM.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	if err := env.saveStageFile("07_edited.md", resp.Text); err != nil {
		return nil, err
	}
	// 润色结果同时作为成稿发布
	if err := env.FS.SaveTextFile(env.outputDir(), "final_article.md", []byte(resp.Text)); err != nil {
		return nil, apperrors.NewProcessing("发布成稿失败", err)
	}

	return &Result{
		OutputFile: "stages/07_edited.md",
		TokensUsed: resp.TokensUsed,
		APICalls:   1,
		Summary:    "редактура завершена",
	}, nil
}
