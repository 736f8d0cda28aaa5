package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clusterforge/forgectl/core/protocol"
	"github.com/clusterforge/forgectl/guidance"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAIChatPath       = "/chat/completions"
)

// OpenAI speaks the chat completions API. The canonical protocol message
// shapes match this wire format directly, so history passes through with the
// stable guidance prefix prepended as the system message.
type OpenAI struct {
	model      string
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI adapter from cfg.
func NewOpenAI(cfg Config) *OpenAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAI{
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxTokens:  maxTokens(cfg),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

type openAIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role      string              `json:"role"`
			Content   string              `json:"content"`
			ToolCalls []protocol.ToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Step sends one chat-completions turn. tool_choice "required" makes a tool
// call mandatory; a choice without tool calls is reported as Stopped with its
// finish_reason.
func (o *OpenAI) Step(ctx context.Context, prompt guidance.Context, tools []protocol.Tool, history []protocol.Message) (*StepResult, error) {
	requestID := uuid.NewString()

	messages := make([]any, 0, len(history)+1)
	if prompt.Stable != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": prompt.Stable,
		})
	}
	for _, msg := range history {
		messages = append(messages, msg)
	}

	payload := map[string]any{
		"model":       o.model,
		"messages":    messages,
		"tools":       convertOpenAITools(tools),
		"tool_choice": "required",
		"max_tokens":  o.maxTokens,
		"stream":      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request %s: %w", requestID, err)
	}

	endpoint := o.baseURL + openAIChatPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request %s: %w", requestID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: request %s: %w", requestID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response %s: %w", requestID, err)
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, respBody)
		}
		return nil, fmt.Errorf("openai: decode response %s: %w", requestID, err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("openai: status %d: %s: %s",
			resp.StatusCode, apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, respBody)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response %s has no choices", requestID)
	}

	choice := apiResp.Choices[0]
	result := &StepResult{
		Message: protocol.Message{
			Role:      protocol.RoleAssistant,
			Content:   choice.Message.Content,
			ToolCalls: choice.Message.ToolCalls,
		},
		ToolCalls: choice.Message.ToolCalls,
	}
	if len(choice.Message.ToolCalls) == 0 {
		result.Stopped = true
		result.StopReason = choice.FinishReason
	}
	return result, nil
}

func convertOpenAITools(tools []protocol.Tool) []map[string]any {
	converted := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		converted = append(converted, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.Parameters,
			},
		})
	}
	return converted
}
