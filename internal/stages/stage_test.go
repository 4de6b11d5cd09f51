package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitReport(t *testing.T) {
	text := "исправленный текст\n\n---ОТЧЁТ---\n\n- [ИСПРАВЛЕНО] опечатка"
	assert.Equal(t, "исправленный текст", SplitReport(text))
}

func TestSplitReport_NoSeparator(t *testing.T) {
	assert.Equal(t, "просто текст", SplitReport("  просто текст\n"))
}

func TestSplitReport_SeparatorFirst(t *testing.T) {
	assert.Equal(t, "", SplitReport("---ОТЧЁТ---\nвесь ответ — отчёт"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "проблема_и_решение", slugify("Проблема и решение", 30))
	assert.Equal(t, "kubernetes_в_бою", slugify("Kubernetes: в бою!", 30))
	assert.Equal(t, "section", slugify("???", 30))
}

func TestSlugify_Truncates(t *testing.T) {
	slug := slugify("очень длинное название секции которое не влезает", 30)
	assert.LessOrEqual(t, len([]rune(slug)), 30)
	assert.NotEqual(t, "_", slug[len(slug)-1:])
}

func TestSectionFileName(t *testing.T) {
	assert.Equal(t, "01_введение.md", sectionFileName(1, "Введение"))
	assert.Equal(t, "12_итоги.md", sectionFileName(12, "Итоги"))
}

func TestStageRegistry(t *testing.T) {
	for n := 1; n <= StageCount; n++ {
		stage, err := New(n, nil)
		assert.NoError(t, err)
		assert.Equal(t, n, stage.Number())
	}

	_, err := New(0, nil)
	assert.Error(t, err)
	_, err = New(11, nil)
	assert.Error(t, err)
}
