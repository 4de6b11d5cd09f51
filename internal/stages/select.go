// internal/stages/select.go
package stages

import (
	"context"
	"strings"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/models"
)

// SelectStage 第9阶段：登记要生成的材料类型
// 未指定时默认选择目录中的全部五种，重跑时整体替换之前的选择。本阶段不调用模型
type SelectStage struct{}

func (s *SelectStage) Number() int  { return 9 }
func (s *SelectStage) Name() string { return "select" }

func (s *SelectStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	requested := env.Selected
	if len(requested) == 0 {
		requested = models.MaterialOrder
	}

	seen := make(map[string]bool)
	var invalid []string
	for _, id := range requested {
		if _, ok := models.MaterialTypes[id]; !ok {
			invalid = append(invalid, id)
			continue
		}
		seen[id] = true
	}
	if len(invalid) > 0 {
		return nil, apperrors.NewInvalidStructure(
			"неизвестные типы материалов: " + strings.Join(invalid, ", "))
	}

	// 按目录的固定顺序排列选择结果
	var ordered []string
	for _, id := range models.MaterialOrder {
		if seen[id] {
			ordered = append(ordered, id)
		}
	}

	env.State.Materials.Selected = ordered

	return &Result{
		Summary: "выбраны материалы: " + strings.Join(ordered, ", "),
	}, nil
}
