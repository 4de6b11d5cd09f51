// internal/stages/write.go
package stages

import (
	"context"
	"fmt"
	"strings"
)

// WriteStage 第5阶段：按计划逐章节写作
// 每个章节的提示包含此前写好的全部章节，保证上下文连贯
type WriteStage struct{}

func (s *WriteStage) Number() int  { return 5 }
func (s *WriteStage) Name() string { return "write" }

func (s *WriteStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	plan, err := env.loadPlan()
	if err != nil {
		return nil, err
	}
	transcript, err := env.readStageFile("03_corrected.md")
	if err != nil {
		return nil, err
	}
	systemPrompt, err := env.Prompts.Prompt("05_write_section")
	if err != nil {
		return nil, err
	}

	planOverview := renderPlan(plan)
	sectionsDir := env.stagesDir() + "/05_sections"
	total := len(plan.Sections)

	var written []string
	totalTokens := 0
	for i, section := range plan.Sections {
		env.progress(i, total, fmt.Sprintf("Пишем секцию %d/%d: %s", i+1, total, section.Title))

		var sb strings.Builder
		sb.WriteString("План статьи:\n\n" + planOverview + "\n\n")
		fmt.Fprintf(&sb, "Текущая секция: %d. %s\n\nКлючевые тезисы:\n", section.ID, section.Title)
		for _, point := range section.KeyPoints {
			sb.WriteString("- " + point + "\n")
		}
		if len(written) > 0 {
			sb.WriteString("\nУже написанные секции:\n\n" + strings.Join(written, "\n\n---\n\n") + "\n")
		}
		sb.WriteString("\nРасшифровка интервью:\n\n" + transcript)

		resp, err := env.LLM.Generate(ctx, systemPrompt, sb.String())
		if err != nil {
			return nil, err
		}

		filename := sectionFileName(i+1, section.Title)
		if err := env.FS.SaveTextFile(sectionsDir, filename, []byte(resp.Text)); err != nil {
			return nil, fmt.Errorf("保存章节文件失败: %w", err)
		}

		written = append(written, fmt.Sprintf("## %s\n\n%s", section.Title, resp.Text))
		totalTokens += resp.TokensUsed

		env.progress(i+1, total, fmt.Sprintf("Секция %d/%d готова", i+1, total))
	}

	return &Result{
		OutputFile: "stages/05_sections",
		TokensUsed: totalTokens,
		APICalls:   total,
		Summary:    fmt.Sprintf("написано %d секций", total),
	}, nil
}
