package observability

import "context"

// Multi fans each event out to every wrapped observer in order.
type Multi struct {
	observers []Observer
}

// NewMulti creates a Multi from the given observers. Nil entries are skipped.
func NewMulti(observers ...Observer) *Multi {
	kept := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			kept = append(kept, o)
		}
	}
	return &Multi{observers: kept}
}

func (m *Multi) OnEvent(ctx context.Context, event Event) {
	for _, o := range m.observers {
		o.OnEvent(ctx, event)
	}
}
