// internal/stages/registry.go
package stages

import (
	"fmt"

	"github.com/avolkoff/habrpipe/internal/apperrors"
)

// StageCount 管线的阶段总数
const StageCount = 10

// New 按阶段编号创建阶段实例
// extractJSON 供第4阶段从模型回复里提取JSON
func New(stageNum int, extractJSON func(string) string) (Stage, error) {
	switch stageNum {
	case 1:
		return &LoadStage{}, nil
	case 2:
		return &FormatStage{}, nil
	case 3:
		return &CompareStage{}, nil
	case 4:
		return &PlanStage{ExtractJSON: extractJSON}, nil
	case 5:
		return &WriteStage{}, nil
	case 6:
		return &MergeStage{}, nil
	case 7:
		return &EditStage{}, nil
	case 8:
		return &AnalyzeStage{}, nil
	case 9:
		return &SelectStage{}, nil
	case 10:
		return &GenerateStage{}, nil
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("无效的阶段编号: %d", stageNum))
	}
}
