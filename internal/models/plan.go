// internal/models/plan.go
package models

import "strconv"

// PlanSection 文章计划中的一个章节
type PlanSection struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	KeyPoints []string `json:"key_points"`
}

// ArticlePlan 第4阶段产出的结构化文章计划，供第5、6阶段消费
type ArticlePlan struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle,omitempty"`
	Tags     []string      `json:"tags,omitempty"`
	Sections []PlanSection `json:"sections"`
}

// Validate 检查计划结构是否满足下游阶段的约定，返回所有问题的描述
func (p *ArticlePlan) Validate() []string {
	var problems []string

	if p.Title == "" {
		problems = append(problems, "missing title")
	}
	if len(p.Sections) == 0 {
		problems = append(problems, "sections list is empty")
	}
	for i, section := range p.Sections {
		num := strconv.Itoa(i + 1)
		if section.Title == "" {
			problems = append(problems, "section "+num+" has no title")
		}
		if len(section.KeyPoints) == 0 {
			problems = append(problems, "section "+num+" has no key_points")
		}
	}

	return problems
}
