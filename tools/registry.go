// Package tools implements the session-scoped registry of actions the model
// may invoke. Each session builds its own registry at construction time; there
// is no process-global tool state.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/clusterforge/forgectl/core/protocol"
)

// Handler is the function signature for tool implementations. Handlers
// receive the request context and the JSON-encoded arguments from the model.
type Handler func(ctx context.Context, args json.RawMessage) Result

// Result is the tool invocation output that feeds back into the next model
// turn. IsError signals to the model that the invocation did not succeed; it
// is feedback, not a host-side failure.
type Result struct {
	Content string
	IsError bool
}

type entry struct {
	tool    protocol.Tool
	handler Handler
}

// Registry maps tool names to handlers. The tool list is returned in
// registration order so every backend is offered an identical set.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register adds a tool to the registry. Names must be unique and non-empty.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	r.order = append(r.order, tool.Name)
	return nil
}

// List returns the definitions of all registered tools in registration order.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]protocol.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].tool)
	}
	return defs
}

// Dispatch invokes the handler registered under name. An unrecognized name
// returns a descriptive Result rather than an error: the name comes from the
// model, and the model must be able to recover from its own mistake on the
// next turn.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) Result {
	r.mu.RLock()
	e, exists := r.entries[name]
	names := strings.Join(r.order, ", ")
	r.mu.RUnlock()

	if !exists {
		return Result{
			Content: fmt.Sprintf("unknown tool %q: available tools are %s", name, names),
			IsError: true,
		}
	}

	return e.handler(ctx, args)
}
