// internal/reader/reader.go
package reader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/avolkoff/habrpipe/internal/apperrors"
)

// SupportedExtensions 支持读取的输入文件扩展名
var SupportedExtensions = []string{".txt", ".md", ".docx"}

// Result 读取结果：提取出的纯文本与识别到的格式
type Result struct {
	Text   string
	Format string
}

// ReadFile 根据扩展名读取输入文件并提取纯文本
// 不支持的扩展名返回 UnsupportedFormat 错误
func ReadFile(path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		text, err := readTextFile(path)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, Format: strings.TrimPrefix(ext, ".")}, nil
	case ".docx":
		text, err := readDocxFile(path)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, Format: "docx"}, nil
	default:
		return nil, apperrors.NewUnsupportedFormat(fmt.Sprintf(
			"不支持的文件格式: %s (支持: %s)", ext, strings.Join(SupportedExtensions, ", ")))
	}
}

// readTextFile 读取文本文件，非 UTF-8 内容按 Windows-1251 解码
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NewNotFound(fmt.Sprintf("文件不存在: %s", path))
		}
		return "", apperrors.NewProcessing(fmt.Sprintf("读取文件失败: %s", path), err)
	}

	// 去掉 UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(data) {
		decoded, derr := charmap.Windows1251.NewDecoder().Bytes(data)
		if derr != nil {
			return "", apperrors.NewProcessing("文件编码无法识别", derr)
		}
		data = decoded
	}

	return string(data), nil
}

// docx word/document.xml 中需要的节点
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Content []docxBlock `xml:",any"`
}

type docxBlock struct {
	XMLName xml.Name
	Runs    []docxRun `xml:"r"`
	Rows    []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts  []string   `xml:"t"`
	Tabs   []xml.Name `xml:"tab"`
	Breaks []xml.Name `xml:"br"`
}

// readDocxFile 从 docx 压缩包中提取 word/document.xml 的段落与表格文本
func readDocxFile(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NewNotFound(fmt.Sprintf("文件不存在: %s", path))
		}
		return "", apperrors.NewProcessing("无法打开 docx 文件", err)
	}
	defer zr.Close()

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, oerr := f.Open()
			if oerr != nil {
				return "", apperrors.NewProcessing("无法读取 docx 内容", oerr)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", apperrors.NewProcessing("无法读取 docx 内容", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", apperrors.NewProcessing("docx 文件缺少 word/document.xml", nil)
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", apperrors.NewProcessing("docx 文档解析失败", err)
	}

	var lines []string
	for _, block := range doc.Body.Content {
		switch block.XMLName.Local {
		case "p":
			lines = append(lines, runsText(block.Runs))
		case "tbl":
			for _, row := range block.Rows {
				var cells []string
				for _, cell := range row.Cells {
					var parts []string
					for _, p := range cell.Paragraphs {
						if t := runsText(p.Runs); t != "" {
							parts = append(parts, t)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

func runsText(runs []docxRun) string {
	var sb strings.Builder
	for _, r := range runs {
		for range r.Tabs {
			sb.WriteString("\t")
		}
		for range r.Breaks {
			sb.WriteString("\n")
		}
		for _, t := range r.Texts {
			sb.WriteString(t)
		}
	}
	return sb.String()
}

var multiBlankRe = regexp.MustCompile(`\n{3,}`)

// NormalizeText 统一换行符，折叠连续空行，去除首尾空白
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text) + "\n"
}
