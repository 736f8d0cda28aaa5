package synthesis_test

import (
	"context"
	"testing"

	"github.com/clusterforge/forgectl/core/protocol"
	"github.com/clusterforge/forgectl/guidance"
	"github.com/clusterforge/forgectl/provider"
	"github.com/clusterforge/forgectl/synthesis"
)

func TestSession_IDsAreUnique(t *testing.T) {
	p := &scriptedProvider{}
	a := newLoop(t, p, synthesis.DefaultConfig(), profileSpec())
	b := newLoop(t, p, synthesis.DefaultConfig(), profileSpec())

	if a.Session().ID() == b.Session().ID() {
		t.Error("two sessions share an ID")
	}
	if a.Session().ID() == "" {
		t.Error("session ID is empty")
	}
}

func TestSession_MessagesAreDefensiveCopies(t *testing.T) {
	p := &scriptedProvider{
		steps: []*provider.StepResult{
			toolTurn(writeCall("call_1", "profile", `{"name":"x"}`), finishCall("call_2")),
		},
	}
	l := newLoop(t, p, synthesis.DefaultConfig(), profileSpec())

	if _, err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	first := l.Session().Messages()
	first[0].Content = "mutated"
	if len(first) > 1 && len(first[1].ToolCalls) > 0 {
		first[1].ToolCalls[0].Name = "mutated"
	}

	second := l.Session().Messages()
	if second[0].Content == "mutated" {
		t.Error("history content shared with caller copy")
	}
	if len(second) > 1 && len(second[1].ToolCalls) > 0 && second[1].ToolCalls[0].Name == "mutated" {
		t.Error("tool call slice shared with caller copy")
	}
}

func TestSession_SnapshotDeclarationOrder(t *testing.T) {
	specs := []synthesis.ArtifactSpec{
		{Name: "profile", Schema: nameSchema, Required: true},
		{Name: "evals", Schema: nameSchema, Required: true},
		{Name: "report", Schema: nameSchema},
	}

	l := newLoop(t, &scriptedProvider{}, synthesis.DefaultConfig(), specs)

	snapshot := l.Session().Snapshot()
	want := []string{"profile", "evals", "report"}
	if len(snapshot) != len(want) {
		t.Fatalf("got %d artifacts, want %d", len(snapshot), len(want))
	}
	for i, name := range want {
		if snapshot[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, snapshot[i].Name, name)
		}
	}
}

func TestSession_SnapshotIsCopy(t *testing.T) {
	l := newLoop(t, &scriptedProvider{}, synthesis.DefaultConfig(), profileSpec())

	snapshot := l.Session().Snapshot()
	snapshot[0].Text = "mutated"
	snapshot[0].Valid = true

	fresh := l.Session().Snapshot()
	if fresh[0].Text != "" || fresh[0].Valid {
		t.Error("snapshot mutation leaked into session state")
	}
}

func TestSession_UnwrittenArtifactIsEmptyAndInvalid(t *testing.T) {
	l := newLoop(t, &scriptedProvider{}, synthesis.DefaultConfig(), profileSpec())

	a := l.Session().Snapshot()[0]
	if a.Text != "" {
		t.Errorf("got text %q, want empty before first write", a.Text)
	}
	if a.Valid {
		t.Error("unwritten artifact marked valid")
	}
	if !a.Required {
		t.Error("required flag not carried into snapshot")
	}
}

func TestLoop_ToolListMatchesArtifacts(t *testing.T) {
	specs := []synthesis.ArtifactSpec{
		{Name: "profile", Schema: nameSchema, Required: true},
		{Name: "evals", Schema: nameSchema, Required: true},
	}

	var captured []protocol.Tool
	p := &capturingToolsProvider{
		inner: &scriptedProvider{
			steps: []*provider.StepResult{toolTurn(finishCall("call_1"))},
		},
		captured: &captured,
	}

	l := newLoop(t, p, synthesis.Config{Budget: 1, AllowInvalidFinish: true}, specs)
	if _, err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"write_profile", "write_evals", "finish"}
	if len(captured) != len(want) {
		t.Fatalf("got %d tools, want %d", len(captured), len(want))
	}
	for i, name := range want {
		if captured[i].Name != name {
			t.Errorf("tool %d: got %q, want %q", i, captured[i].Name, name)
		}
	}
}

// capturingToolsProvider records the tool list offered to the backend.
type capturingToolsProvider struct {
	inner    provider.Provider
	captured *[]protocol.Tool
}

func (p *capturingToolsProvider) Step(ctx context.Context, prompt guidance.Context, tools []protocol.Tool, history []protocol.Message) (*provider.StepResult, error) {
	*p.captured = append([]protocol.Tool(nil), tools...)
	return p.inner.Step(ctx, prompt, tools, history)
}
