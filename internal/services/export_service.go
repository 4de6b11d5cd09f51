// internal/services/export_service.go
package services

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/storage"
	"github.com/avolkoff/habrpipe/internal/utils"
)

// ExportService 把管线产物导出为HTML预览
type ExportService struct {
	storage  *storage.FileStorage
	markdown goldmark.Markdown
	logger   *utils.Logger
}

// NewExportService 创建导出服务
func NewExportService(fs *storage.FileStorage) *ExportService {
	return &ExportService{
		storage:  fs,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   utils.GetLogger(),
	}
}

// FinalArticle 返回项目成稿的Markdown文本
func (s *ExportService) FinalArticle(name string) (string, error) {
	dir := name + "/output"
	if !s.storage.FileExists(dir, "final_article.md") {
		return "", apperrors.NewNotFound("成稿尚未发布，请先运行 edit 阶段")
	}
	data, err := s.storage.LoadTextFile(dir, "final_article.md")
	if err != nil {
		return "", apperrors.NewProcessing("读取成稿失败", err)
	}
	return string(data), nil
}

// ExportHTML 把成稿渲染为HTML并写入 output/final_article.html
// 返回产物相对项目目录的路径
func (s *ExportService) ExportHTML(name string) (string, error) {
	article, err := s.FinalArticle(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(article), &buf); err != nil {
		return "", apperrors.NewProcessing("Markdown渲染失败", err)
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, name, buf.String())

	if err := s.storage.SaveTextFile(name+"/output", "final_article.html", []byte(page)); err != nil {
		return "", apperrors.NewProcessing("保存HTML导出失败", err)
	}

	s.logger.Info("成稿已导出为HTML", map[string]interface{}{"project": name})
	return "output/final_article.html", nil
}

// Material 返回某个已生成材料的Markdown文本
func (s *ExportService) Material(name, filename string) (string, error) {
	dir := name + "/output/materials"
	if !s.storage.FileExists(dir, filename) {
		return "", apperrors.NewNotFound("材料不存在: " + filename)
	}
	data, err := s.storage.LoadTextFile(dir, filename)
	if err != nil {
		return "", apperrors.NewProcessing("读取材料失败", err)
	}
	return string(data), nil
}
