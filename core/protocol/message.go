// Package protocol defines the conversation types shared by the synthesis
// loop and the provider adapters: messages, tool calls, and tool definitions.
package protocol

import "encoding/json"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments carries the
// JSON-encoded input exactly as the backend produced it.
//
// Fields are flat (ID, Name, Arguments) for direct use across the loop.
// MarshalJSON emits the nested chat-completions function format and
// UnmarshalJSON accepts both shapes, so the OpenAI adapter can decode provider
// responses directly into the canonical type.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall creates a ToolCall with the given request identifier, tool name,
// and JSON-encoded arguments.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Name: name, Arguments: arguments}
}

type nestedToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// MarshalJSON serializes to the nested function format
// ({id, type, function: {name, arguments}}) used on the wire.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	var n nestedToolCall
	n.ID = tc.ID
	n.Type = "function"
	n.Function.Name = tc.Name
	n.Function.Arguments = tc.Arguments
	return json.Marshal(n)
}

// UnmarshalJSON handles both the nested function format and the flat form.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var n nestedToolCall
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	if n.Function.Name != "" {
		tc.ID = n.ID
		tc.Name = n.Function.Name
		tc.Arguments = n.Function.Arguments
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// Message is one turn of the conversation. Assistant messages may carry
// ToolCalls; tool result messages carry the ToolCallID that correlates the
// result back to its originating request.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// NewMessage creates a Message with the given role and text content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewToolResult creates a tool result message correlated to the request with
// the given identifier.
func NewToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
