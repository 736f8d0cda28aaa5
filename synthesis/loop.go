// Package synthesis implements the iterative, tool-validated artifact
// generation loop: a session of model turns in which every turn must invoke a
// tool, write-and-validate tools mutate artifact state, and a finish tool
// terminates the session once the required artifacts are valid.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/clusterforge/forgectl/core/protocol"
	"github.com/clusterforge/forgectl/guidance"
	"github.com/clusterforge/forgectl/observability"
	"github.com/clusterforge/forgectl/provider"
	"github.com/clusterforge/forgectl/schema"
	"github.com/clusterforge/forgectl/tools"
)

// State is the loop's lifecycle state.
type State int

const (
	StateRunning State = iota
	StateFinished
	StateExhausted
	StateStoppedEarly
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateFinished:
		return "FINISHED"
	case StateExhausted:
		return "EXHAUSTED"
	case StateStoppedEarly:
		return "STOPPED_EARLY"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of one synthesis run: the terminal state, the number
// of backend calls used, and the final artifact snapshot. Partial work is
// always returned, whatever the terminal state.
type Result struct {
	State      State
	Iterations int
	StopReason string
	Artifacts  []Artifact
}

// Clean reports the success condition callers should treat as "done and
// clean": the session finished and every required artifact is valid.
func (r *Result) Clean() bool {
	if r.State != StateFinished {
		return false
	}
	for _, a := range r.Artifacts {
		if a.Required && !a.Valid {
			return false
		}
	}
	return true
}

// Option configures a Loop after construction.
type Option func(*Loop)

// WithObserver replaces the default no-op observer.
func WithObserver(o observability.Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// Loop drives the turn-by-turn synthesis protocol for one session.
type Loop struct {
	provider           provider.Provider
	registry           *tools.Registry
	session            *Session
	prompt             guidance.Context
	observer           observability.Observer
	budget             int
	allowInvalidFinish bool
}

// New constructs a Loop for the given artifact set. The tool lookup table is
// built here, once per session: one write-and-validate tool per artifact plus
// the finish tool.
func New(p provider.Provider, prompt guidance.Context, cfg Config, specs []ArtifactSpec, opts ...Option) (*Loop, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	if cfg.Budget < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, cfg.Budget)
	}

	session, err := newSession(specs)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		provider:           p,
		registry:           tools.NewRegistry(),
		session:            session,
		prompt:             prompt,
		observer:           observability.NewNoopObserver(),
		budget:             cfg.Budget,
		allowInvalidFinish: cfg.AllowInvalidFinish,
	}

	for _, spec := range specs {
		tool := protocol.Tool{
			Name:        "write_" + spec.Name,
			Description: fmt.Sprintf("Write the complete %s document and validate it against its schema. Always pass the full replacement text, never a partial edit.", spec.Name),
			Parameters: protocol.ObjectParameters(
				protocol.Param{Name: "content", Description: "Full document text", Required: true},
			),
		}
		if err := l.registry.Register(tool, l.writeHandler(spec.Name, spec.Schema)); err != nil {
			return nil, err
		}
	}

	finish := protocol.Tool{
		Name:        "finish",
		Description: "Declare the session complete. Call only after every required document has validated as VALID.",
		Parameters: protocol.ObjectParameters(
			protocol.Param{Name: "summary", Description: "Short summary of what was produced, for human audit", Required: true},
		),
	}
	if err := l.registry.Register(finish, l.finishHandler()); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Session returns the loop's session. Exposed for inspection; the loop
// retains exclusive ownership while Run is in progress.
func (l *Loop) Session() *Session {
	return l.session
}

// Run executes the synthesis state machine until the session finishes, the
// budget is exhausted, or the backend stops cooperating. The returned Result
// always carries the current artifact snapshot; err is non-nil only for hard
// failures (context cancellation or a failed backend call).
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	l.session.addMessage(protocol.NewMessage(protocol.RoleUser, l.prompt.Instructions))

	l.emit(ctx, EventRunStart, observability.LevelInfo,
		fmt.Sprintf("starting synthesis session %s (budget %d)", l.session.ID(), l.budget),
		map[string]any{"session": l.session.ID(), "budget": l.budget, "tools": len(l.registry.List())})

	state := StateRunning
	stopReason := ""

	for state == StateRunning && l.session.Iteration() < l.budget {
		if err := ctx.Err(); err != nil {
			return l.result(state, stopReason), err
		}

		l.session.advance()
		l.emit(ctx, EventTurnStart, observability.LevelInfo,
			fmt.Sprintf("turn %d/%d", l.session.Iteration(), l.budget),
			map[string]any{"iteration": l.session.Iteration()})

		step, err := l.provider.Step(ctx, l.prompt, l.registry.List(), l.session.Messages())
		if err != nil {
			return l.result(state, stopReason), fmt.Errorf("backend call failed: %w", err)
		}

		l.session.addMessage(step.Message)

		if step.Stopped {
			state = StateStoppedEarly
			stopReason = step.StopReason
			l.emit(ctx, EventStoppedEarly, observability.LevelWarning,
				fmt.Sprintf("backend ended turn without a tool call (%s); returning partial results", step.StopReason),
				map[string]any{"iteration": l.session.Iteration(), "stop_reason": step.StopReason})
			break
		}

		for _, call := range step.ToolCalls {
			l.emit(ctx, EventToolDispatch, observability.LevelVerbose,
				fmt.Sprintf("dispatching %s", call.Name),
				map[string]any{"iteration": l.session.Iteration(), "tool": call.Name, "call_id": call.ID})

			res := l.registry.Dispatch(ctx, call.Name, json.RawMessage(call.Arguments))
			l.session.addMessage(protocol.NewToolResult(call.ID, res.Content))

			l.emit(ctx, EventToolResult, observability.LevelVerbose,
				fmt.Sprintf("%s -> %s", call.Name, firstLine(res.Content)),
				map[string]any{"iteration": l.session.Iteration(), "tool": call.Name, "error": res.IsError})

			// Once finish succeeds, remaining calls in this turn are skipped.
			if l.session.Finished() {
				state = StateFinished
				break
			}
		}
	}

	if state == StateRunning {
		state = StateExhausted
		l.emit(ctx, EventExhausted, observability.LevelWarning,
			fmt.Sprintf("budget of %d turns exhausted before finish", l.budget),
			map[string]any{"budget": l.budget})
	}

	result := l.result(state, stopReason)
	l.emit(ctx, EventRunComplete, observability.LevelInfo,
		fmt.Sprintf("session %s ended in %s after %d turns", l.session.ID(), state, result.Iterations),
		map[string]any{"state": state.String(), "iterations": result.Iterations, "clean": result.Clean()})

	return result, nil
}

func (l *Loop) result(state State, stopReason string) *Result {
	return &Result{
		State:      state,
		Iterations: l.session.Iteration(),
		StopReason: stopReason,
		Artifacts:  l.session.Snapshot(),
	}
}

func (l *Loop) writeHandler(name, schemaText string) tools.Handler {
	return func(ctx context.Context, args json.RawMessage) tools.Result {
		var input struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(args, &input); err != nil {
			return tools.Result{
				Content: fmt.Sprintf("malformed arguments for write_%s: %v", name, err),
				IsError: true,
			}
		}

		validation := schema.Validate(input.Content, schemaText)
		l.session.writeArtifact(name, input.Content, validation.Valid)

		if validation.Valid {
			return tools.Result{Content: "VALID"}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "INVALID: %s has %d validation error(s):\n", name, len(validation.Errors))
		for _, e := range validation.Errors {
			b.WriteString("  - ")
			b.WriteString(e)
			b.WriteString("\n")
		}
		return tools.Result{Content: b.String(), IsError: true}
	}
}

func (l *Loop) finishHandler() tools.Handler {
	return func(ctx context.Context, args json.RawMessage) tools.Result {
		if !l.allowInvalidFinish {
			if invalid := l.session.invalidRequired(); len(invalid) > 0 {
				l.emit(ctx, EventFinishRefused, observability.LevelVerbose,
					fmt.Sprintf("finish refused: %s not yet valid", strings.Join(invalid, ", ")),
					map[string]any{"invalid": invalid})
				return tools.Result{
					Content: fmt.Sprintf(
						"cannot finish: the following artifacts are not yet valid: %s. Write each one until it validates, then call finish again.",
						strings.Join(invalid, ", ")),
					IsError: true,
				}
			}
		}

		l.session.setFinished()
		return tools.Result{Content: "session complete"}
	}
}

func (l *Loop) emit(ctx context.Context, t observability.EventType, level observability.Level, msg string, data map[string]any) {
	l.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "synthesis.Loop",
		Message:   msg,
		Data:      data,
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
