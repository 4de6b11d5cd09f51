// internal/llm/providers/openai/openai.go
package openai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/avolkoff/habrpipe/internal/llm"
)

func init() {
	llm.Register("openai", func() llm.Provider {
		return &Provider{}
	})
}

// Provider 基于官方 openai-go SDK 的提供者实现
type Provider struct {
	opts         []option.RequestOption
	defaultModel string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("openai_api密钥未提供")
	}

	p.opts = []option.RequestOption{option.WithAPIKey(apiKey)}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		p.opts = append(p.opts, option.WithBaseURL(baseURL))
	}

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gpt-4o"
	}

	return nil
}

func (p *Provider) GetName() string {
	return "openai"
}

func (p *Provider) buildParams(req llm.CompletionRequest) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(float64(req.Temperature)),
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	return params
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	client := openai.NewClient(p.opts...)

	params := p.buildParams(req)
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai未返回任何结果")
	}

	return &llm.CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		TokensUsed:   int(resp.Usage.TotalTokens),
		PromptTokens: int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		ModelName:    string(params.Model),
		ProviderName: p.GetName(),
	}, nil
}

// StreamCompletion 实现流式响应
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	client := openai.NewClient(p.opts...)

	params := p.buildParams(req)
	stream := client.Chat.Completions.NewStreaming(ctx, params)

	respChan := make(chan llm.StreamResponse)

	go func() {
		defer stream.Close()
		defer close(respChan)

		var full []byte
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				full = append(full, delta...)
				select {
				case respChan <- llm.StreamResponse{Text: delta}:
				case <-ctx.Done():
					return
				}
			}

			if chunk.Choices[0].FinishReason != "" {
				respChan <- llm.StreamResponse{
					Text:         string(full),
					FinishReason: string(chunk.Choices[0].FinishReason),
					ModelName:    string(params.Model),
					Done:         true,
				}
				return
			}
		}

		if err := stream.Err(); err == nil {
			respChan <- llm.StreamResponse{
				Text:         string(full),
				FinishReason: "stop",
				ModelName:    string(params.Model),
				Done:         true,
			}
		}
	}()

	return respChan, nil
}
