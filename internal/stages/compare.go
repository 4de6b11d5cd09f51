// internal/stages/compare.go
package stages

import (
	"context"
	"fmt"
	"strings"
)

// ReportSeparator 第3阶段回复中正文与校对报告之间的分隔符
const ReportSeparator = "---ОТЧЁТ---"

// CompareStage 第3阶段：比对原始转写与格式化版本，恢复丢失内容
// 产出正文与带校对报告的审计版本两份文件
type CompareStage struct{}

func (s *CompareStage) Number() int  { return 3 }
func (s *CompareStage) Name() string { return "compare" }

func (s *CompareStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	original, err := env.readStageFile("01_loaded.md")
	if err != nil {
		return nil, err
	}
	formatted, err := env.readStageFile("02_formatted.md")
	if err != nil {
		return nil, err
	}

	systemPrompt, err := env.Prompts.Prompt("03_compare")
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(
		"Оригинальная транскрипция:\n\n%s\n\n---\n\nОбработанная версия:\n\n%s",
		original, formatted)

	resp, err := env.LLM.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	corrected := SplitReport(resp.Text)
	if err := env.saveStageFile("03_corrected.md", corrected); err != nil {
		return nil, err
	}
	// 完整回复（含报告）作为审计产物保留
	if err := env.saveStageFile("03_corrected_with_report.md", resp.Text); err != nil {
		return nil, err
	}

	return &Result{
		OutputFile: "stages/03_corrected.md",
		TokensUsed: resp.TokensUsed,
		APICalls:   1,
		Summary:    "比对校正完成",
	}, nil
}

// SplitReport 截取分隔符之前的正文；没有分隔符时返回全文
func SplitReport(text string) string {
	if idx := strings.Index(text, ReportSeparator); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}
