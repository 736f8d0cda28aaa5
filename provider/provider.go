// Package provider adapts the generic "send context, tools, and conversation;
// get back requested tool invocations" contract onto concrete language-model
// backends. Backend quirks stay inside each adapter; the synthesis loop only
// sees Step.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clusterforge/forgectl/core/protocol"
	"github.com/clusterforge/forgectl/guidance"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 8192
)

// ErrUnknownBackend is returned by New for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown backend")

// StepResult is one model turn. Message is the assistant message to append to
// history. ToolCalls preserves the backend's request order and identifiers.
// Stopped reports that the backend ended the turn without requesting a tool
// call; StopReason carries the backend's stated reason.
type StepResult struct {
	Message    protocol.Message
	ToolCalls  []protocol.ToolCall
	Stopped    bool
	StopReason string
}

// Provider drives one backend turn. Implementations must instruct the backend
// that a tool call is mandatory every turn, and must preserve tool call order
// and request identifiers unchanged.
type Provider interface {
	Step(ctx context.Context, prompt guidance.Context, tools []protocol.Tool, history []protocol.Message) (*StepResult, error)
}

// Config selects and configures a backend adapter.
type Config struct {
	Backend   string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// New creates the Provider named by cfg.Backend. Supported backends are
// "anthropic" and "openai".
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func maxTokens(cfg Config) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return defaultMaxTokens
}
