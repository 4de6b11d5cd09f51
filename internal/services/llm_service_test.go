package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkoff/habrpipe/internal/apperrors"
	"github.com/avolkoff/habrpipe/internal/llm"
)

// mockProvider 按队列返回回复，可配置前若干次调用失败
// onCall 在每次调用时执行，用于在阶段运行中途注入动作
type mockProvider struct {
	responses []string
	failures  int
	calls     int
	captured  []llm.CompletionRequest
	onCall    func(call int)
}

func (m *mockProvider) Initialize(config map[string]string) error { return nil }
func (m *mockProvider) GetName() string                           { return "mock" }

func (m *mockProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls++
	m.captured = append(m.captured, req)
	if m.onCall != nil {
		m.onCall(m.calls)
	}
	if m.calls <= m.failures {
		return nil, errors.New("временный сбой сети")
	}

	text := "ответ"
	idx := m.calls - m.failures - 1
	if idx < len(m.responses) {
		text = m.responses[idx]
	} else if len(m.responses) > 0 {
		text = m.responses[len(m.responses)-1]
	}

	return &llm.CompletionResponse{
		Text:         text,
		TokensUsed:   100,
		ProviderName: "mock",
	}, nil
}

func (m *mockProvider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	ch := make(chan llm.StreamResponse, 2)
	ch <- llm.StreamResponse{Text: "кусок"}
	ch <- llm.StreamResponse{Done: true}
	close(ch)
	return ch, nil
}

func TestLLMService_RetriesAndSucceeds(t *testing.T) {
	provider := &mockProvider{failures: 2, responses: []string{"готово"}}
	svc := NewLLMService(provider)
	svc.SetRetryPolicy(3, 0)

	resp, err := svc.Generate(context.Background(), "система", "запрос")
	require.NoError(t, err)
	assert.Equal(t, "готово", resp.Text)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, 100, svc.LastTokenCount())
}

func TestLLMService_GenerationErrorAfterExhaustion(t *testing.T) {
	provider := &mockProvider{failures: 10}
	svc := NewLLMService(provider)
	svc.SetRetryPolicy(3, 0)

	_, err := svc.Generate(context.Background(), "", "запрос")
	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
	assert.Equal(t, 3, provider.calls)
}

func TestLLMService_EmptyProvider(t *testing.T) {
	svc := NewEmptyLLMService()

	_, err := svc.Generate(context.Background(), "", "запрос")
	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
	assert.Equal(t, "none", svc.ProviderName())
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Вот план статьи:\n```json\n{\"title\": \"Заголовок\"}\n```\nНадеюсь, подходит."
	assert.Equal(t, `{"title": "Заголовок"}`, ExtractJSON(text))
}

func TestExtractJSON_BareFence(t *testing.T) {
	text := "```\n{\"title\": \"Заголовок\"}\n```"
	assert.Equal(t, `{"title": "Заголовок"}`, ExtractJSON(text))
}

func TestExtractJSON_EmbeddedObject(t *testing.T) {
	text := `План готов: {"title": "Заголовок", "sections": [{"id": 1}]} — вот он.`
	assert.Equal(t, `{"title": "Заголовок", "sections": [{"id": 1}]}`, ExtractJSON(text))
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	text := `{"title": "Скобки } в строке", "n": 1}`
	assert.Equal(t, text, ExtractJSON(text))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	assert.Equal(t, "обычный текст", ExtractJSON("  обычный текст\n"))
}
