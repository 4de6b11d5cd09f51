package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/prompts"
	"github.com/avolkoff/habrpipe/internal/storage"
)

func newPromptService(t *testing.T) (*PromptService, string) {
	t.Helper()
	instDir := t.TempDir()
	fs, err := storage.NewFileStorage(instDir)
	require.NoError(t, err)
	return NewPromptService(fs), instDir
}

func TestPromptResolve_Default(t *testing.T) {
	svc, _ := newPromptService(t)

	info, err := svc.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceDefault, info.Source)
	assert.Equal(t, prompts.Defaults["02_format"], info.Content)
	assert.Empty(t, info.FilePath)
}

func TestPromptResolve_Unknown(t *testing.T) {
	svc, _ := newPromptService(t)

	_, err := svc.Resolve("99_nonexistent")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPromptResolve_InstallationOverride(t *testing.T) {
	svc, instDir := newPromptService(t)
	require.NoError(t, os.WriteFile(filepath.Join(instDir, "02_format.md"), []byte("мой вариант"), 0644))

	info, err := svc.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceCustom, info.Source)
	assert.Equal(t, "мой вариант", info.Content)
}

func TestPromptResolve_ProjectBeatsInstallation(t *testing.T) {
	svc, instDir := newPromptService(t)
	require.NoError(t, os.WriteFile(filepath.Join(instDir, "02_format.md"), []byte("уровень установки"), 0644))

	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "prompts", "02_format.md"), []byte("уровень проекта"), 0644))
	require.NoError(t, svc.SetProjectDir(projectDir))

	info, err := svc.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceProject, info.Source)
	assert.Equal(t, "уровень проекта", info.Content)
}

func TestPromptResolve_MaterialKey(t *testing.T) {
	svc, _ := newPromptService(t)

	info, err := svc.Resolve("materials/tg_vk_post")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceDefault, info.Source)
	assert.NotEmpty(t, info.Content)
}

func TestPromptSaveAndReset(t *testing.T) {
	svc, _ := newPromptService(t)

	require.NoError(t, svc.Save("04_plan", "новый промпт плана", false))

	info, err := svc.Resolve("04_plan")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceCustom, info.Source)
	assert.Equal(t, "новый промпт плана", info.Content)

	removed, err := svc.Reset("04_plan")
	require.NoError(t, err)
	assert.True(t, removed)

	info, err = svc.Resolve("04_plan")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceDefault, info.Source)

	// 重复重置：没有文件可删
	removed, err = svc.Reset("04_plan")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPromptReset_RemovesBothScopes(t *testing.T) {
	svc, _ := newPromptService(t)

	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "prompts"), 0755))
	require.NoError(t, svc.SetProjectDir(projectDir))

	require.NoError(t, svc.Save("02_format", "уровень установки", false))
	require.NoError(t, svc.Save("02_format", "уровень проекта", true))

	removed, err := svc.Reset("02_format")
	require.NoError(t, err)
	assert.True(t, removed)

	info, err := svc.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceDefault, info.Source)
}

func TestPromptSave_Validation(t *testing.T) {
	svc, _ := newPromptService(t)

	assert.Error(t, svc.Save("02_format", "   ", false))
	assert.Error(t, svc.Save("unknown_key", "текст", false))
	// 未选择项目时不能保存项目级覆盖
	assert.Error(t, svc.Save("02_format", "текст", true))
}

func TestPromptCache_InvalidatedOnProjectSwitch(t *testing.T) {
	svc, _ := newPromptService(t)

	info, err := svc.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceDefault, info.Source)

	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "prompts", "02_format.md"), []byte("проектный"), 0644))
	require.NoError(t, svc.SetProjectDir(projectDir))

	info, err = svc.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, PromptSourceProject, info.Source)
}

func TestPromptForProject_IndependentBinding(t *testing.T) {
	svc, _ := newPromptService(t)

	alpha := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(alpha, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(alpha, "prompts", "02_format.md"), []byte("альфа"), 0644))

	scoped, err := svc.ForProject(alpha)
	require.NoError(t, err)

	// 重绑定共享解析器不影响已创建的项目级解析器
	beta := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(beta, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(beta, "prompts", "02_format.md"), []byte("бета"), 0644))
	require.NoError(t, svc.SetProjectDir(beta))

	info, err := scoped.Resolve("02_format")
	require.NoError(t, err)
	assert.Equal(t, "альфа", info.Content)
}

func TestPromptList_CoversDefaults(t *testing.T) {
	svc, _ := newPromptService(t)

	infos := svc.List()
	assert.Len(t, infos, len(prompts.Defaults))
	for _, info := range infos {
		assert.Equal(t, PromptSourceDefault, info.Source)
	}
}
