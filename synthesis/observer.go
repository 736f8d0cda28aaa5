package synthesis

import "github.com/clusterforge/forgectl/observability"

// Event types emitted during a synthesis run.
const (
	EventRunStart      observability.EventType = "synthesis.run.start"
	EventTurnStart     observability.EventType = "synthesis.turn.start"
	EventToolDispatch  observability.EventType = "synthesis.tool.dispatch"
	EventToolResult    observability.EventType = "synthesis.tool.result"
	EventFinishRefused observability.EventType = "synthesis.finish.refused"
	EventStoppedEarly  observability.EventType = "synthesis.stopped.early"
	EventExhausted     observability.EventType = "synthesis.budget.exhausted"
	EventRunComplete   observability.EventType = "synthesis.run.complete"
)
