package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/models"
	"github.com/avolkoff/habrpipe/internal/storage"
)

const testPlanResponse = "```json\n" + `{
  "title": "Как мы переехали в Kubernetes",
  "tags": ["devops", "kubernetes"],
  "sections": [
    {"id": 1, "title": "Проблема", "key_points": ["рост нагрузки"]},
    {"id": 2, "title": "Решение", "key_points": ["миграция", "автоскейлинг"]}
  ]
}` + "\n```"

// fullRunResponses 覆盖 2..10 全部需要模型的调用
var fullRunResponses = []string{
	"**И:** вопрос\n\n**Э:** ответ эксперта",              // 2_format
	"исправленный текст интервью\n\n---ОТЧЁТ---\n\n- [ВОССТАНОВЛЕНО] пропущенная цифра", // 3_compare
	testPlanResponse,               // 4_plan
	"текст секции про проблему",    // 5_write #1
	"текст секции про решение",     // 5_write #2
	"отредактированная статья",     // 7_edit
	"анализ: рекомендую пост и рассылку", // 8_analyze
	"пост для телеграма",           // 10_generate tg_vk_post
}

func newPipeline(t *testing.T, provider *mockProvider) (*PipelineService, *StateService) {
	t.Helper()

	projectsFS, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	promptsFS, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	llmService := NewLLMService(provider)
	llmService.SetRetryPolicy(1, 0)

	stateService := NewStateService(projectsFS)
	promptService := NewPromptService(promptsFS)
	pipeline := NewPipelineService(stateService, promptService, llmService,
		NewProgressService(), projectsFS)
	return pipeline, stateService
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipeline_FullRun(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, stateService := newPipeline(t, provider)
	ctx := context.Background()

	state, result, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "сырая расшифровка интервью"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.StageStatusCompleted, result.Status)
	assert.Equal(t, 1, state.Pipeline.CurrentStage)
	assert.Equal(t, "interview.txt", state.Input.OriginalFile)
	assert.Equal(t, "txt", state.Input.Format)

	results, err := pipeline.RunRange(ctx, "demo", 2, 8, RunOptions{})
	require.NoError(t, err)
	require.Len(t, results, 7)
	for _, r := range results {
		assert.Equal(t, models.StageStatusCompleted, r.Status, "stage %d", r.Stage)
	}

	_, err = pipeline.RunStage(ctx, "demo", 9, RunOptions{Selected: []string{"tg_vk_post"}})
	require.NoError(t, err)
	_, err = pipeline.RunStage(ctx, "demo", 10, RunOptions{})
	require.NoError(t, err)

	state, err = pipeline.LoadProject("demo")
	require.NoError(t, err)
	assert.Equal(t, 10, state.Pipeline.CurrentStage)
	assert.Equal(t, []string{"tg_vk_post"}, state.Materials.Selected)
	require.Len(t, state.Materials.Generated, 1)
	assert.Equal(t, "tg_vk_post", state.Materials.Generated[0].ID)

	// 8次模型调用，每次100个令牌
	assert.Equal(t, 800, state.Statistics.TotalTokensUsed)
	assert.Equal(t, 8, state.Statistics.TotalAPICalls)

	fs := stateService.storage
	for _, f := range []string{
		"01_loaded.md", "02_formatted.md",
		"03_corrected.md", "03_corrected_with_report.md",
		"04_plan.json", "04_plan_readable.md",
		"06_merged.md", "07_edited.md", "08_analysis.md",
	} {
		assert.True(t, fs.FileExists("demo/stages", f), "missing %s", f)
	}

	// 校对正文不应包含报告
	corrected, err := fs.LoadTextFile("demo/stages", "03_corrected.md")
	require.NoError(t, err)
	assert.Equal(t, "исправленный текст интервью", string(corrected))
	assert.NotContains(t, string(corrected), "ОТЧЁТ")

	// 章节文件按计划顺序命名
	sections, err := fs.ListFiles("demo/stages/05_sections", ".md")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "01_проблема.md", sections[0])
	assert.Equal(t, "02_решение.md", sections[1])

	// 草稿包含标题与全部章节
	merged, err := fs.LoadTextFile("demo/stages", "06_merged.md")
	require.NoError(t, err)
	assert.Contains(t, string(merged), "# Как мы переехали в Kubernetes")
	assert.Contains(t, string(merged), "## Проблема")
	assert.Contains(t, string(merged), "## Решение")
	assert.Contains(t, string(merged), "текст секции про решение")

	// 成稿与材料
	article, err := fs.LoadTextFile("demo/output", "final_article.md")
	require.NoError(t, err)
	assert.Equal(t, "отредактированная статья", string(article))

	material, err := fs.LoadTextFile("demo/output/materials", "tg_vk_post.md")
	require.NoError(t, err)
	assert.Equal(t, "пост для телеграма", string(material))
}

func TestPipeline_WriteStage_GrowingContext(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "расшифровка"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 5, RunOptions{})
	require.NoError(t, err)

	// 调用顺序: 0=format, 1=compare, 2=plan, 3=секция1, 4=секция2
	require.Len(t, provider.captured, 5)
	first := provider.captured[3].Prompt
	second := provider.captured[4].Prompt

	assert.NotContains(t, first, "Уже написанные секции")
	assert.Contains(t, second, "Уже написанные секции")
	assert.Contains(t, second, "текст секции про проблему")
}

func TestPipeline_OutOfOrder(t *testing.T) {
	provider := &mockProvider{}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)

	_, err = pipeline.RunStage(ctx, "demo", 3, RunOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsOutOfOrder(err))
	assert.Equal(t, 0, provider.calls)

	// 门控失败不应改变状态
	state, err := pipeline.LoadProject("demo")
	require.NoError(t, err)
	assert.Equal(t, models.StageStatusPending, state.Pipeline.Stages["3_compare"].Status)
}

func TestPipeline_PlanStage_InvalidJSON(t *testing.T) {
	provider := &mockProvider{responses: []string{
		"форматированный текст",
		"исправленный текст",
		"к сожалению, план не получился",
	}}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 3, RunOptions{})
	require.NoError(t, err)

	result, err := pipeline.RunStage(ctx, "demo", 4, RunOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidStructure(err))
	require.NotNil(t, result)
	assert.Equal(t, models.StageStatusError, result.Status)

	// 失败记录进状态文件，进度指针不前移
	state, err := pipeline.LoadProject("demo")
	require.NoError(t, err)
	assert.Equal(t, 3, state.Pipeline.CurrentStage)
	rec := state.Pipeline.Stages["4_plan"]
	assert.Equal(t, models.StageStatusError, rec.Status)
	assert.NotEmpty(t, rec.ErrorMessage)
}

func TestPipeline_PlanStage_StructureValidation(t *testing.T) {
	provider := &mockProvider{responses: []string{
		"форматированный текст",
		"исправленный текст",
		"```json\n{\"title\": \"Заголовок\", \"sections\": []}\n```",
	}}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 3, RunOptions{})
	require.NoError(t, err)

	_, err = pipeline.RunStage(ctx, "demo", 4, RunOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidStructure(err))
}

func TestPipeline_RunRange_HaltsOnFailure(t *testing.T) {
	provider := &mockProvider{responses: []string{
		"форматированный текст",
		"исправленный текст",
		"это не JSON", // 第4阶段失败
	}}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)

	results, err := pipeline.RunRange(ctx, "demo", 2, 8, RunOptions{})
	require.Error(t, err)
	// 2、3成功，4失败，5..8未运行
	require.Len(t, results, 3)
	assert.Equal(t, models.StageStatusCompleted, results[0].Status)
	assert.Equal(t, models.StageStatusCompleted, results[1].Status)
	assert.Equal(t, models.StageStatusError, results[2].Status)
	assert.Equal(t, 4, results[2].Stage)
}

func TestPipeline_MergeStage_SectionCountMismatch(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, stateService := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 5, RunOptions{})
	require.NoError(t, err)

	require.NoError(t, stateService.storage.DeleteFile("demo/stages/05_sections", "02_решение.md"))

	_, err = pipeline.RunStage(ctx, "demo", 6, RunOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidStructure(err))
}

func TestPipeline_SelectStage_Validation(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 8, RunOptions{})
	require.NoError(t, err)

	// 未知类型归为结构错误，并全部列出
	_, err = pipeline.RunStage(ctx, "demo", 9, RunOptions{Selected: []string{"billboard", "cards", "banner"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidStructure(err))
	assert.Contains(t, err.Error(), "billboard")
	assert.Contains(t, err.Error(), "banner")

	// 重跑整体替换之前的选择
	_, err = pipeline.RunStage(ctx, "demo", 9, RunOptions{Selected: []string{"cards", "tg_vk_post"}})
	require.NoError(t, err)
	state, err := pipeline.LoadProject("demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"tg_vk_post", "cards"}, state.Materials.Selected)

	_, err = pipeline.RunStage(ctx, "demo", 9, RunOptions{Selected: []string{"press_release"}})
	require.NoError(t, err)
	state, err = pipeline.LoadProject("demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"press_release"}, state.Materials.Selected)

	// 未指定时默认选择全部类型
	_, err = pipeline.RunStage(ctx, "demo", 9, RunOptions{})
	require.NoError(t, err)
	state, err = pipeline.LoadProject("demo")
	require.NoError(t, err)
	assert.Equal(t, models.MaterialOrder, state.Materials.Selected)
}

func TestPipeline_CreateProject_Duplicate(t *testing.T) {
	provider := &mockProvider{}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	input := writeInput(t, "текст")
	_, _, err := pipeline.CreateProject(ctx, "demo", input)
	require.NoError(t, err)

	_, _, err = pipeline.CreateProject(ctx, "demo", input)
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestPipeline_Resume(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, _ := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "текст"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 3, RunOptions{})
	require.NoError(t, err)

	// 从第4阶段继续
	results, err := pipeline.Resume(ctx, "demo", 8, RunOptions{})
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, 4, results[0].Stage)
	assert.Equal(t, 8, results[4].Stage)
}

func TestPipeline_PromptBindingStableDuringRun(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, stateService := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "alpha", writeInput(t, "текст"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "alpha", 2, 8, RunOptions{})
	require.NoError(t, err)
	_, err = pipeline.RunStage(ctx, "alpha", 9, RunOptions{Selected: []string{"tg_vk_post", "cards"}})
	require.NoError(t, err)

	// 两个项目各有自己的项目级材料提示词
	fs := stateService.storage
	require.NoError(t, fs.SaveTextFile("alpha/prompts/materials", "tg_vk_post.md", []byte("ПРОМПТ ПРОЕКТА ALPHA: tg")))
	require.NoError(t, fs.SaveTextFile("alpha/prompts/materials", "cards.md", []byte("ПРОМПТ ПРОЕКТА ALPHA: cards")))
	_, err = stateService.CreateProject("beta")
	require.NoError(t, err)
	require.NoError(t, fs.SaveTextFile("beta/prompts/materials", "cards.md", []byte("ПРОМПТ ПРОЕКТА BETA: cards")))

	// 在第一份材料生成期间把共享解析器切到另一个项目，
	// 模拟并发运行时的重绑定
	provider.onCall = func(call int) {
		if call == 8 {
			require.NoError(t, pipeline.prompts.SetProjectDir(stateService.ProjectDir("beta")))
		}
	}

	_, err = pipeline.RunStage(ctx, "alpha", 10, RunOptions{})
	require.NoError(t, err)

	require.Len(t, provider.captured, 9)
	assert.Equal(t, "ПРОМПТ ПРОЕКТА ALPHA: tg", provider.captured[7].SystemPrompt)
	assert.Equal(t, "ПРОМПТ ПРОЕКТА ALPHA: cards", provider.captured[8].SystemPrompt)
}

func TestPipeline_WriteStage_ProgressPersisted(t *testing.T) {
	provider := &mockProvider{responses: fullRunResponses}
	pipeline, stateService := newPipeline(t, provider)
	ctx := context.Background()

	_, _, err := pipeline.CreateProject(ctx, "demo", writeInput(t, "расшифровка"))
	require.NoError(t, err)
	_, err = pipeline.RunRange(ctx, "demo", 2, 4, RunOptions{})
	require.NoError(t, err)

	// 在写第二个章节期间读取磁盘上的状态文件
	var persisted *models.StageProgress
	provider.onCall = func(call int) {
		if call == 5 {
			st, loadErr := stateService.Load("demo")
			require.NoError(t, loadErr)
			persisted = st.Pipeline.Stages[models.StageKey(5)].Progress
		}
	}

	_, err = pipeline.RunStage(ctx, "demo", 5, RunOptions{})
	require.NoError(t, err)

	require.NotNil(t, persisted)
	assert.Equal(t, 1, persisted.Current)
	assert.Equal(t, 2, persisted.Total)
}
