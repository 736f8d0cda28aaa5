package synthesis

import (
	"github.com/google/uuid"

	"github.com/clusterforge/forgectl/core/protocol"
)

// ArtifactSpec declares one target document for a session: its name, the
// schema its content must satisfy, and whether it must be valid before the
// session may finish.
type ArtifactSpec struct {
	Name     string
	Schema   string
	Required bool
}

// Artifact is the state of one target document. Text is empty until the first
// write; Valid tracks the most recent validation outcome.
type Artifact struct {
	Name     string
	Text     string
	Valid    bool
	Required bool
}

// Session is the unit of work for one generation request: the ordered
// conversation history, per-artifact state, the iteration count, and the
// terminal flag. A session is owned exclusively by its loop for its lifetime
// and is not safe for concurrent use.
type Session struct {
	id        string
	messages  []protocol.Message
	artifacts map[string]*Artifact
	order     []string
	iteration int
	finished  bool
}

func newSession(specs []ArtifactSpec) (*Session, error) {
	if len(specs) == 0 {
		return nil, ErrNoArtifacts
	}

	s := &Session{
		id:        uuid.Must(uuid.NewV7()).String(),
		artifacts: make(map[string]*Artifact, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, ErrEmptyArtifactName
		}
		if _, exists := s.artifacts[spec.Name]; exists {
			return nil, ErrDuplicateArtifact
		}
		s.artifacts[spec.Name] = &Artifact{Name: spec.Name, Required: spec.Required}
		s.order = append(s.order, spec.Name)
	}
	return s, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// Iteration returns the number of backend calls issued so far.
func (s *Session) Iteration() int {
	return s.iteration
}

// Finished reports whether the finish tool has set the terminal flag.
func (s *Session) Finished() bool {
	return s.finished
}

func (s *Session) addMessage(msg protocol.Message) {
	s.messages = append(s.messages, msg)
}

// Messages returns a defensive copy of the conversation history.
func (s *Session) Messages() []protocol.Message {
	copied := make([]protocol.Message, len(s.messages))
	for i, msg := range s.messages {
		copied[i] = msg
		copied[i].ToolCalls = append([]protocol.ToolCall(nil), msg.ToolCalls...)
	}
	return copied
}

func (s *Session) advance() {
	s.iteration++
}

func (s *Session) writeArtifact(name, text string, valid bool) {
	a := s.artifacts[name]
	a.Text = text
	a.Valid = valid
}

func (s *Session) setFinished() {
	s.finished = true
}

// invalidRequired returns the names of required artifacts that are not yet
// valid, in declaration order.
func (s *Session) invalidRequired() []string {
	var names []string
	for _, name := range s.order {
		a := s.artifacts[name]
		if a.Required && !a.Valid {
			names = append(names, name)
		}
	}
	return names
}

// Snapshot returns a read-only copy of all artifact states in declaration
// order.
func (s *Session) Snapshot() []Artifact {
	snapshot := make([]Artifact, 0, len(s.order))
	for _, name := range s.order {
		snapshot = append(snapshot, *s.artifacts[name])
	}
	return snapshot
}
