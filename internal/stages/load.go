// internal/stages/load.go
package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/reader"
)

// LoadStage 第1阶段：读取源文件，提取纯文本并归一化
type LoadStage struct{}

func (s *LoadStage) Number() int  { return 1 }
func (s *LoadStage) Name() string { return "load" }

func (s *LoadStage) Execute(ctx context.Context, env *Env) (*Result, error) {
	if env.InputFile == "" {
		// 重跑时从 input/ 目录恢复源文件
		restored, err := s.restoreInput(env)
		if err != nil {
			return nil, err
		}
		env.InputFile = restored
	}

	raw, err := os.ReadFile(env.InputFile)
	if err != nil {
		return nil, apperrors.NewNotFound(fmt.Sprintf("源文件不存在: %s", env.InputFile))
	}

	result, err := reader.ReadFile(env.InputFile)
	if err != nil {
		return nil, err
	}

	text := reader.NormalizeText(result.Text)
	if err := env.saveStageFile("01_loaded.md", text); err != nil {
		return nil, err
	}

	// 保留源文件副本，供重跑与追溯
	base := filepath.Base(env.InputFile)
	if err := env.FS.SaveTextFile(env.Project+"/input", base, raw); err != nil {
		return nil, apperrors.NewProcessing("保存源文件副本失败", err)
	}

	env.State.Input.OriginalFile = base
	env.State.Input.OriginalSize = len(raw)
	env.State.Input.Format = result.Format

	return &Result{
		OutputFile: "stages/01_loaded.md",
		Summary:    fmt.Sprintf("已加载 %s (%d 字节, %s)", base, len(raw), result.Format),
	}, nil
}

// restoreInput 在 input/ 目录中找回之前保存的源文件
func (s *LoadStage) restoreInput(env *Env) (string, error) {
	if env.State.Input.OriginalFile != "" {
		path := filepath.Join(env.FS.BaseDir, env.Project, "input", env.State.Input.OriginalFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	files, err := env.FS.ListFiles(env.Project+"/input", "")
	if err != nil || len(files) == 0 {
		return "", apperrors.NewValidation("未指定源文件且 input/ 目录为空")
	}
	return filepath.Join(env.FS.BaseDir, env.Project, "input", files[0]), nil
}
