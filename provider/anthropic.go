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
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	anthropicMessagesPath   = "/messages"
)

// Anthropic speaks the messages API. Tool results travel back as tool_result
// content blocks inside user messages, and the stable guidance prefix is sent
// as a system block marked for prompt caching.
type Anthropic struct {
	model      string
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// NewAnthropic creates an Anthropic adapter from cfg.
func NewAnthropic(cfg Config) *Anthropic {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	return &Anthropic{
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxTokens:  maxTokens(cfg),
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

type anthropicBlock struct {
	Type         string          `json:"type"`
	Text         string          `json:"text,omitempty"`
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name,omitempty"`
	Input        map[string]any  `json:"input,omitempty"`
	ToolUseID    string          `json:"tool_use_id,omitempty"`
	Content      string          `json:"content,omitempty"`
	CacheControl *anthropicCache `json:"cache_control,omitempty"`
}

type anthropicCache struct {
	Type string `json:"type"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Step sends one messages-API turn. tool_choice "any" makes a tool call
// mandatory; a response with no tool_use block is reported as Stopped with
// the backend's stop_reason.
func (a *Anthropic) Step(ctx context.Context, prompt guidance.Context, tools []protocol.Tool, history []protocol.Message) (*StepResult, error) {
	requestID := uuid.NewString()

	payload := map[string]any{
		"model":       a.model,
		"max_tokens":  a.maxTokens,
		"messages":    convertAnthropicMessages(history),
		"tools":       convertAnthropicTools(tools),
		"tool_choice": map[string]any{"type": "any"},
	}
	if prompt.Stable != "" {
		payload["system"] = []anthropicBlock{{
			Type:         "text",
			Text:         prompt.Stable,
			CacheControl: &anthropicCache{Type: "ephemeral"},
		}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request %s: %w", requestID, err)
	}

	endpoint := a.baseURL + anthropicMessagesPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request %s: %w", requestID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request %s: %w", requestID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: read response %s: %w", requestID, err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, respBody)
		}
		return nil, fmt.Errorf("anthropic: decode response %s: %w", requestID, err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic: status %d: %s: %s",
			resp.StatusCode, apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, respBody)
	}

	var text strings.Builder
	var toolCalls []protocol.ToolCall
	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			input, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic: encode tool input %s: %w", requestID, err)
			}
			toolCalls = append(toolCalls, protocol.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(input),
			})
		}
	}

	result := &StepResult{
		Message: protocol.Message{
			Role:      protocol.RoleAssistant,
			Content:   text.String(),
			ToolCalls: toolCalls,
		},
		ToolCalls: toolCalls,
	}
	if len(toolCalls) == 0 {
		result.Stopped = true
		result.StopReason = apiResp.StopReason
	}
	return result, nil
}

func convertAnthropicMessages(history []protocol.Message) []anthropicMessage {
	messages := make([]anthropicMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case protocol.RoleTool:
			messages = append(messages, anthropicMessage{
				Role: "user",
				Content: []anthropicBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})

		case protocol.RoleAssistant:
			var blocks []anthropicBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicBlock{Type: "text", Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropicBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: decodeToolInput(call.Arguments),
				})
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropicMessage{Role: "assistant", Content: blocks})

		default:
			if msg.Content == "" {
				continue
			}
			messages = append(messages, anthropicMessage{
				Role:    "user",
				Content: []anthropicBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}
	return messages
}

func decodeToolInput(arguments string) map[string]any {
	input := map[string]any{}
	if arguments == "" {
		return input
	}
	// Best effort: a malformed argument string round-trips as empty input.
	_ = json.Unmarshal([]byte(arguments), &input)
	return input
}

func convertAnthropicTools(tools []protocol.Tool) []map[string]any {
	converted := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		converted = append(converted, map[string]any{
			"name":         tool.Name,
			"description":  tool.Description,
			"input_schema": tool.Parameters,
		})
	}
	return converted
}
