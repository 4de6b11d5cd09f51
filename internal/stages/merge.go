// internal/stages/merge.go
package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkoff/habrpipe/internal/apperrors"
)

// MergeStage 第6阶段：按计划顺序把章节文件拼装成完整草稿
// 本阶段不调用模型
type MergeStage struct{}

func (s *MergeStage) Number() int  { return 6 }
func (s *MergeStage) Name() string { return "merge" }

func (s *MergeStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	plan, err := env.loadPlan()
	if err != nil {
		return nil, err
	}

	sectionsDir := env.stagesDir() + "/05_sections"
	files, err := env.FS.ListFiles(sectionsDir, ".md")
	if err != nil {
		return nil, apperrors.NewProcessing("读取章节目录失败", err)
	}
	if len(files) != len(plan.Sections) {
		return nil, apperrors.NewInvalidStructure(fmt.Sprintf(
			"章节文件数量 (%d) 与计划章节数量 (%d) 不一致", len(files), len(plan.Sections)))
	}

	var sb strings.Builder
	sb.WriteString("# " + plan.Title + "\n\n")
	if plan.Subtitle != "" {
		sb.WriteString("*" + plan.Subtitle + "*\n\n")
	}

	// 章节文件名带补零序号前缀，排序后与计划顺序一致
	for i, section := range plan.Sections {
		content, err := env.FS.LoadTextFile(sectionsDir, files[i])
		if err != nil {
			return nil, apperrors.NewProcessing("读取章节文件失败: "+files[i], err)
		}
		sb.WriteString("## " + section.Title + "\n\n")
		sb.WriteString(strings.TrimSpace(string(content)) + "\n\n")
	}

	if len(plan.Tags) > 0 {
		sb.WriteString("---\n\nТеги: " + strings.Join(plan.Tags, ", ") + "\n")
	}

	if err := env.saveStageFile("06_merged.md", sb.String()); err != nil {
		return nil, err
	}

	return &Result{
		OutputFile: "stages/06_merged.md",
		Summary:    fmt.Sprintf("объединено %d секций", len(plan.Sections)),
	}, nil
}
