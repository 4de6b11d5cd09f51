// internal/services/llm_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/llm"
	"github.com/avolkoff/habrpipe/internal/utils"
)

// DefaultMaxAttempts 每次生成请求的最大尝试次数
const DefaultMaxAttempts = 3

// DefaultRetryDelay 重试的基础延迟，实际延迟为 尝试次数 × 基础延迟
const DefaultRetryDelay = 5 * time.Second

// LLMService 统一的文本生成入口，封装重试与令牌计数
type LLMService struct {
	provider    llm.Provider
	maxAttempts int
	retryDelay  time.Duration
	model       string
	temperature float64

	mutex          sync.Mutex
	lastTokenCount int
	logger         *utils.Logger
}

// NewLLMService 创建生成服务
func NewLLMService(provider llm.Provider) *LLMService {
	return &LLMService{
		provider:    provider,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      utils.GetLogger(),
	}
}

// NewEmptyLLMService 创建未配置提供者的生成服务
// 不需要生成能力的操作（查看状态、管理提示词）仍可正常工作
func NewEmptyLLMService() *LLMService {
	return &LLMService{
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      utils.GetLogger(),
	}
}

// SetModelDefaults 设置所有请求透传的模型名与温度
func (s *LLMService) SetModelDefaults(model string, temperature float64) {
	s.model = model
	s.temperature = temperature
}

// ModelDefaults 返回当前透传的模型名与温度
func (s *LLMService) ModelDefaults() (string, float64) {
	return s.model, s.temperature
}

// SetRetryPolicy 调整重试策略（主要供测试使用）
func (s *LLMService) SetRetryPolicy(maxAttempts int, delay time.Duration) {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	s.retryDelay = delay
}

// ProviderName 返回当前提供商名称
func (s *LLMService) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.GetName()
}

// Generate 发送生成请求，失败时线性退避重试
// 所有尝试都失败后返回 GenerationError
func (s *LLMService) Generate(ctx context.Context, systemPrompt, userPrompt string) (*llm.CompletionResponse, error) {
	if s.provider == nil {
		return nil, apperrors.NewGeneration("未配置LLM提供者，请设置API密钥", nil)
	}

	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       userPrompt,
		Model:        s.model,
		Temperature:  float32(s.temperature),
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err := s.provider.CompleteText(ctx, req)
		if err == nil {
			s.recordTokens(resp.TokensUsed)
			return resp, nil
		}

		lastErr = err
		s.logger.Warn("生成请求失败", map[string]interface{}{
			"provider": s.provider.GetName(),
			"attempt":  attempt,
			"error":    err.Error(),
		})

		if attempt < s.maxAttempts {
			delay := time.Duration(attempt) * s.retryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, apperrors.NewGeneration("生成请求被取消", ctx.Err())
			}
		}
	}

	return nil, apperrors.NewGeneration(
		fmt.Sprintf("生成请求在 %d 次尝试后失败", s.maxAttempts), lastErr)
}

// GenerateStream 流式生成，用于实时预览，不参与重试
func (s *LLMService) GenerateStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan llm.StreamResponse, error) {
	if s.provider == nil {
		return nil, apperrors.NewGeneration("未配置LLM提供者，请设置API密钥", nil)
	}

	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       userPrompt,
		Model:        s.model,
		Temperature:  float32(s.temperature),
	}

	ch, err := s.provider.StreamCompletion(ctx, req)
	if err != nil {
		return nil, apperrors.NewGeneration("流式生成请求失败", err)
	}
	return ch, nil
}

// LastTokenCount 返回最近一次成功请求消耗的令牌数
func (s *LLMService) LastTokenCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastTokenCount
}

func (s *LLMService) recordTokens(count int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastTokenCount = count
}

// ExtractJSON 从模型回复中提取JSON文本
// 依次尝试：```json 围栏块 → 首个 { 到配对的 } → 原文
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)

	// 围栏块优先
	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(trimmed, fence); idx >= 0 {
			rest := trimmed[idx+len(fence):]
			if end := strings.Index(rest, "```"); end >= 0 {
				candidate := strings.TrimSpace(rest[:end])
				if candidate != "" && (candidate[0] == '{' || candidate[0] == '[') {
					return candidate
				}
			}
		}
	}

	// 括号配对匹配
	start := strings.Index(trimmed, "{")
	if start == -1 {
		return trimmed
	}

	balance := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		c := trimmed[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				balance++
			}
		case '}':
			if !inString {
				balance--
				if balance == 0 {
					return trimmed[start : i+1]
				}
			}
		}
	}

	return trimmed
}
