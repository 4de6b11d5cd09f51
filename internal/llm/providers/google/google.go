// internal/llm/providers/google/google.go
package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avolkoff/habrpipe/internal/llm"
)

func init() {
	llm.Register("google", func() llm.Provider {
		return &Provider{
			baseURL: "https://generativelanguage.googleapis.com/v1beta",
		}
	})
}

type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("google_api密钥未提供")
	}

	p.apiKey = apiKey
	p.client = &http.Client{}

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gemini-2.0-flash"
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		p.baseURL = baseURL
	}

	return nil
}

func (p *Provider) GetName() string {
	return "google gemini"
}

// buildRequestBody 构建Gemini请求体
func (p *Provider) buildRequestBody(req llm.CompletionRequest) map[string]interface{} {
	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": req.Prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature": req.Temperature,
		},
	}

	if req.SystemPrompt != "" {
		requestBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		}
	}

	if req.MaxTokens > 0 {
		requestBody["generationConfig"].(map[string]interface{})["maxOutputTokens"] = req.MaxTokens
	}

	return requestBody
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	jsonData, err := json.Marshal(p.buildRequestBody(req))
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		var errorResp map[string]interface{}
		body, _ := io.ReadAll(httpResp.Body)
		if err := json.Unmarshal(body, &errorResp); err == nil {
			if errorObj, ok := errorResp["error"].(map[string]interface{}); ok {
				return nil, fmt.Errorf("google gemini API错误(%d): %v",
					httpResp.StatusCode, errorObj["message"])
			}
		}
		return nil, fmt.Errorf("google gemini API错误(%d): %s", httpResp.StatusCode, string(body))
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 {
		return nil, errors.New("google gemini未返回任何结果")
	}

	var resultText string
	for _, part := range response.Candidates[0].Content.Parts {
		resultText += part.Text
	}

	return &llm.CompletionResponse{
		Text:         resultText,
		FinishReason: response.Candidates[0].FinishReason,
		TokensUsed:   response.UsageMetadata.TotalTokenCount,
		PromptTokens: response.UsageMetadata.PromptTokenCount,
		OutputTokens: response.UsageMetadata.CandidatesTokenCount,
		ModelName:    model,
		ProviderName: p.GetName(),
	}, nil
}

// StreamCompletion 实现流式响应
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	jsonData, err := json.Marshal(p.buildRequestBody(req))
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", p.baseURL, model, p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("google gemini API错误(%d): %s", httpResp.StatusCode, string(body))
	}

	respChan := make(chan llm.StreamResponse)

	go func() {
		defer httpResp.Body.Close()
		defer close(respChan)

		reader := bufio.NewReader(httpResp.Body)
		var contentBuffer strings.Builder

		for {
			select {
			case <-ctx.Done():
				return
			default:
				line, err := reader.ReadBytes('\n')
				if err != nil {
					if err != io.EOF {
						respChan <- llm.StreamResponse{
							Text:         contentBuffer.String(),
							FinishReason: "stop",
							ModelName:    model,
							Done:         true,
						}
					}
					return
				}

				payload := bytes.TrimSpace(line)
				payload = bytes.TrimPrefix(payload, []byte("data:"))
				payload = bytes.TrimSpace(payload)
				if len(payload) == 0 {
					continue
				}

				var streamResp struct {
					Candidates []struct {
						Content struct {
							Parts []struct {
								Text string `json:"text"`
							} `json:"parts"`
						} `json:"content"`
						FinishReason string `json:"finishReason,omitempty"`
					} `json:"candidates"`
				}

				if err := json.Unmarshal(payload, &streamResp); err != nil {
					continue
				}

				if len(streamResp.Candidates) > 0 {
					var text string
					for _, part := range streamResp.Candidates[0].Content.Parts {
						text += part.Text
					}

					if text != "" {
						contentBuffer.WriteString(text)
						respChan <- llm.StreamResponse{
							Text: text,
							Done: false,
						}
					}

					if streamResp.Candidates[0].FinishReason != "" {
						respChan <- llm.StreamResponse{
							Text:         contentBuffer.String(),
							FinishReason: streamResp.Candidates[0].FinishReason,
							ModelName:    model,
							Done:         true,
						}
						return
					}
				}
			}
		}
	}()

	return respChan, nil
}
