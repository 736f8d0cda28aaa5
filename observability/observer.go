// Package observability carries advisory events out of the synthesis loop.
// Events never affect control flow: observers are for logging and progress
// reporting only. Level values align with OpenTelemetry SeverityNumbers so
// they translate to collectors without mapping tables.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is event severity on the OTel SeverityNumber scale.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG range
	LevelInfo    Level = 9  // OTel INFO range
	LevelWarning Level = 13 // OTel WARN range
	LevelError   Level = 17 // OTel ERROR range
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	default:
		return "ERROR"
	}
}

// SlogLevel maps the level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. Emitting packages define their own
// constants (e.g. "synthesis.turn.start").
type EventType string

// Event is one observability event. Message is the human-readable status
// line; Data carries structured attributes for log sinks.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Message   string
	Data      map[string]any
}

// Observer receives events from the synthesis loop.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
