package observability

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterObserver prints one human-readable status line per event at or above
// a minimum level. It is the progress reporting surface for interactive use.
type WriterObserver struct {
	mu  sync.Mutex
	w   io.Writer
	min Level
}

// NewWriterObserver creates a WriterObserver writing to w. Events below min
// are dropped.
func NewWriterObserver(w io.Writer, min Level) *WriterObserver {
	return &WriterObserver{w: w, min: min}
}

func (o *WriterObserver) OnEvent(_ context.Context, event Event) {
	if event.Level < o.min {
		return
	}

	line := event.Message
	if line == "" {
		line = string(event.Type)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, line)
}
