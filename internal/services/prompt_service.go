// internal/services/prompt_service.go
package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/prompts"
	"github.com/avolkoff/habrpipe/internal/storage"
	"github.com/avolkoff/habrpipe/internal/utils"
)

// 提示词来源
const (
	PromptSourceDefault = "default" // 内置默认
	PromptSourceCustom  = "custom"  // 安装级覆盖
	PromptSourceProject = "project" // 项目级覆盖
)

// PromptInfo 解析后的提示词及其来源
type PromptInfo struct {
	Key      string `json:"key"`
	Content  string `json:"content"`
	Source   string `json:"source"`
	FilePath string `json:"file_path,omitempty"`
}

// PromptService 按 项目 > 安装 > 默认 三级解析提示词
type PromptService struct {
	instFS *storage.FileStorage // 安装级提示词目录
	projFS *storage.FileStorage // 当前项目的 prompts 目录，可为空

	mutex  sync.RWMutex
	cache  map[string]*PromptInfo
	logger *utils.Logger
}

// NewPromptService 创建提示词服务
func NewPromptService(instFS *storage.FileStorage) *PromptService {
	return &PromptService{
		instFS: instFS,
		cache:  make(map[string]*PromptInfo),
		logger: utils.GetLogger(),
	}
}

// SetProjectDir 切换当前项目并清空缓存；projectDir 为空时仅清除项目级覆盖
func (s *PromptService) SetProjectDir(projectDir string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache = make(map[string]*PromptInfo)
	if projectDir == "" {
		s.projFS = nil
		return nil
	}

	fs, err := storage.NewFileStorage(filepath.Join(projectDir, "prompts"))
	if err != nil {
		return apperrors.NewProcessing("打开项目提示词目录失败", err)
	}
	s.projFS = fs
	return nil
}

// ForProject 返回绑定到指定项目目录的独立解析器
// 与原解析器共享安装级存储，但各自持有项目级绑定与缓存，
// 并发的阶段运行互不干扰
func (s *PromptService) ForProject(projectDir string) (*PromptService, error) {
	scoped := &PromptService{
		instFS: s.instFS,
		cache:  make(map[string]*PromptInfo),
		logger: s.logger,
	}
	if projectDir == "" {
		return scoped, nil
	}

	fs, err := storage.NewFileStorage(filepath.Join(projectDir, "prompts"))
	if err != nil {
		return nil, apperrors.NewProcessing("打开项目提示词目录失败", err)
	}
	scoped.projFS = fs
	return scoped, nil
}

// 将提示词键拆分为目录与文件名，如 "materials/tg_vk_post" -> ("materials", "tg_vk_post.md")
func splitPromptKey(key string) (string, string) {
	dir, base := filepath.Split(key)
	return strings.TrimSuffix(dir, "/"), base + ".md"
}

// Resolve 解析提示词，按 项目 > 安装 > 默认 顺序查找
func (s *PromptService) Resolve(key string) (*PromptInfo, error) {
	s.mutex.RLock()
	if info, ok := s.cache[key]; ok {
		s.mutex.RUnlock()
		return info, nil
	}
	projFS := s.projFS
	s.mutex.RUnlock()

	info, err := s.load(key, projFS)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.cache[key] = info
	s.mutex.Unlock()
	return info, nil
}

func (s *PromptService) load(key string, projFS *storage.FileStorage) (*PromptInfo, error) {
	dir, filename := splitPromptKey(key)

	// 项目级覆盖
	if projFS != nil && projFS.FileExists(dir, filename) {
		data, err := projFS.LoadTextFile(dir, filename)
		if err != nil {
			return nil, apperrors.NewProcessing("读取项目提示词失败", err)
		}
		return &PromptInfo{
			Key:      key,
			Content:  string(data),
			Source:   PromptSourceProject,
			FilePath: filepath.Join(projFS.BaseDir, dir, filename),
		}, nil
	}

	// 安装级覆盖
	if s.instFS != nil && s.instFS.FileExists(dir, filename) {
		data, err := s.instFS.LoadTextFile(dir, filename)
		if err != nil {
			return nil, apperrors.NewProcessing("读取自定义提示词失败", err)
		}
		return &PromptInfo{
			Key:      key,
			Content:  string(data),
			Source:   PromptSourceCustom,
			FilePath: filepath.Join(s.instFS.BaseDir, dir, filename),
		}, nil
	}

	// 内置默认
	if content, ok := prompts.Defaults[key]; ok {
		return &PromptInfo{Key: key, Content: content, Source: PromptSourceDefault}, nil
	}

	return nil, apperrors.NewNotFound(fmt.Sprintf("提示词不存在: %s", key))
}

// Save 保存提示词覆盖；toProject 为真时写入当前项目，否则写入安装目录
func (s *PromptService) Save(key, content string, toProject bool) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.NewValidation("提示词内容不能为空")
	}
	if _, ok := prompts.Defaults[key]; !ok {
		return apperrors.NewNotFound(fmt.Sprintf("未知的提示词: %s", key))
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	fs := s.instFS
	if toProject {
		if s.projFS == nil {
			return apperrors.NewValidation("未选择项目，无法保存项目级提示词")
		}
		fs = s.projFS
	}

	dir, filename := splitPromptKey(key)
	if err := fs.SaveTextFile(dir, filename, []byte(content)); err != nil {
		return apperrors.NewProcessing("保存提示词失败", err)
	}

	delete(s.cache, key)
	s.logger.Info("提示词已保存", map[string]interface{}{"key": key, "project": toProject})
	return nil
}

// Reset 删除该提示词在项目级与安装级的所有覆盖，恢复为内置默认；返回是否删除了文件
func (s *PromptService) Reset(key string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir, filename := splitPromptKey(key)
	delete(s.cache, key)

	deleted := false
	for _, fs := range []*storage.FileStorage{s.projFS, s.instFS} {
		if fs == nil || !fs.FileExists(dir, filename) {
			continue
		}
		if err := fs.DeleteFile(dir, filename); err != nil {
			return deleted, apperrors.NewProcessing("删除提示词覆盖失败", err)
		}
		deleted = true
	}
	return deleted, nil
}

// Prompt 返回解析后的提示词正文
func (s *PromptService) Prompt(key string) (string, error) {
	info, err := s.Resolve(key)
	if err != nil {
		return "", err
	}
	return info.Content, nil
}

// List 返回全部已知提示词的解析状态
func (s *PromptService) List() []*PromptInfo {
	keys := make([]string, 0, len(prompts.Defaults))
	for key := range prompts.Defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	infos := make([]*PromptInfo, 0, len(keys))
	for _, key := range keys {
		info, err := s.Resolve(key)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}
