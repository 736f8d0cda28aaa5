package observability

import "context"

// NoopObserver discards all events. Useful as a default when no observer is
// configured.
type NoopObserver struct{}

// NewNoopObserver creates a NoopObserver.
func NewNoopObserver() *NoopObserver {
	return &NoopObserver{}
}

func (*NoopObserver) OnEvent(context.Context, Event) {}
