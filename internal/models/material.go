// internal/models/material.go
package models

// MaterialType 营销材料目录条目（固定目录，运行时不可变）
type MaterialType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PromptFile  string `json:"prompt_file"`
	OutputFile  string `json:"output_file"`
}

// MaterialOrder 材料目录的固定顺序
var MaterialOrder = []string{
	"tg_vk_post",
	"email_announce",
	"press_release",
	"cards",
	"business_media",
}

// MaterialTypes 五种派生营销材料的固定目录
var MaterialTypes = map[string]MaterialType{
	"tg_vk_post": {
		ID:          "tg_vk_post",
		Name:        "Пост для Telegram/VK",
		Description: "Короткий пост для социальных сетей с ключевым инсайтом",
		PromptFile:  "materials/tg_vk_post",
		OutputFile:  "tg_vk_post.md",
	},
	"email_announce": {
		ID:          "email_announce",
		Name:        "Анонс для рассылки",
		Description: "Email-анонс статьи для подписчиков",
		PromptFile:  "materials/email_announce",
		OutputFile:  "email_announce.md",
	},
	"press_release": {
		ID:          "press_release",
		Name:        "Пресс-релиз",
		Description: "Официальный пресс-релиз о публикации",
		PromptFile:  "materials/press_release",
		OutputFile:  "press_release.md",
	},
	"cards": {
		ID:          "cards",
		Name:        "Карточки для соцсетей",
		Description: "Серия карточек с ключевыми тезисами и цифрами",
		PromptFile:  "materials/cards",
		OutputFile:  "cards.md",
	},
	"business_media": {
		ID:          "business_media",
		Name:        "Статья для делового СМИ",
		Description: "Адаптация для РБК, Коммерсант и подобных изданий",
		PromptFile:  "materials/business_media",
		OutputFile:  "business_media.md",
	},
}
