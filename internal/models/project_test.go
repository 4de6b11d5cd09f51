package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageKey(t *testing.T) {
	assert.Equal(t, "1_load", StageKey(1))
	assert.Equal(t, "2_format", StageKey(2))
	assert.Equal(t, "5_write", StageKey(5))
	assert.Equal(t, "10_generate", StageKey(10))
}

func TestStageKey_OutOfRange(t *testing.T) {
	assert.Equal(t, "", StageKey(0))
	assert.Equal(t, "", StageKey(11))
}

func TestArticlePlan_Validate(t *testing.T) {
	plan := &ArticlePlan{
		Title: "Как мы ускорили сборку в 10 раз",
		Sections: []PlanSection{
			{ID: 1, Title: "Проблема", KeyPoints: []string{"долгие сборки"}},
			{ID: 2, Title: "Решение", KeyPoints: []string{"кеширование", "параллелизм"}},
		},
	}
	assert.Empty(t, plan.Validate())
}

func TestArticlePlan_Validate_CollectsAllProblems(t *testing.T) {
	plan := &ArticlePlan{
		Sections: []PlanSection{
			{ID: 1, Title: "", KeyPoints: nil},
		},
	}

	problems := plan.Validate()
	assert.Len(t, problems, 3)
	assert.Contains(t, problems, "missing title")
	assert.Contains(t, problems, "section 1 has no title")
	assert.Contains(t, problems, "section 1 has no key_points")
}

func TestArticlePlan_Validate_EmptySections(t *testing.T) {
	plan := &ArticlePlan{Title: "Заголовок"}
	assert.Equal(t, []string{"sections list is empty"}, plan.Validate())
}

func TestMaterialCatalog_Consistency(t *testing.T) {
	assert.Len(t, MaterialOrder, len(MaterialTypes))
	for _, id := range MaterialOrder {
		mt, ok := MaterialTypes[id]
		assert.True(t, ok, "material %s missing from catalog", id)
		assert.Equal(t, id, mt.ID)
		assert.Equal(t, id+".md", mt.OutputFile)
		assert.Equal(t, "materials/"+id, mt.PromptFile)
	}
}
